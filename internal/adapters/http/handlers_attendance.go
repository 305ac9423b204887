package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"academy/internal/application/listutil"
	"academy/internal/application/orchestrators"
	"academy/internal/application/projections"
	"academy/internal/application/workflow"
	"academy/internal/domain/ledger"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
	"academy/internal/domain/payment"
)

// attendancePage is the data of attendance.html.
type attendancePage struct {
	Kind   member.Kind
	View   workflow.View
	Roster projections.GetRosterPageResult
	Return string // encoded list query for form round-trips
}

// pathKind parses {kind}, answering 404 for anything else.
func pathKind(w http.ResponseWriter, r *http.Request) (member.Kind, bool) {
	kind, err := member.ParseKind(r.PathValue("kind"))
	if err != nil {
		http.NotFound(w, r)
		return "", false
	}
	return kind, true
}

// openScreen returns the session's screen for the path kind, loading it when new.
func openScreen(w http.ResponseWriter, r *http.Request) (*workflow.Screen, bool) {
	kind, ok := pathKind(w, r)
	if !ok {
		return nil, false
	}
	sess := currentSession(r)
	screen, created, err := services.Screens.Open(sess.ID, workflow.Owner{Token: sess.Token, Operator: sess.Operator, ExpiresAt: sess.ExpiresAt}, kind)
	if errors.Is(err, operator.ErrForbidden) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return nil, false
	}
	if err != nil {
		internalError(w, r, err)
		return nil, false
	}
	if created {
		if err := screen.Load(r.Context(), sess.SelectedCenterID); err != nil {
			internalError(w, r, err)
			return nil, false
		}
	}
	return screen, true
}

func parseRosterParams(q url.Values) listutil.ListParams {
	return listutil.ParseListParams(q, projections.RosterSortColumns)
}

// redirectToScreen sends the operator back to the roster, keeping the list view.
func redirectToScreen(w http.ResponseWriter, r *http.Request, screen *workflow.Screen) {
	returnQuery, _ := url.ParseQuery(r.FormValue("return"))
	params := parseRosterParams(returnQuery)
	target := "/attendance/" + screen.Kind().Plural()
	if q := params.Query(params.Page); q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// userMessage maps workflow errors to operator-facing text.
func userMessage(err error) string {
	switch {
	case errors.Is(err, workflow.ErrSubmitInFlight):
		return "A submission is already in progress"
	case errors.Is(err, orchestrators.ErrNothingToSubmit):
		return "Mark at least one member before submitting"
	case errors.Is(err, ledger.ErrUnknownMember):
		return "That member is not on the current roster"
	case errors.Is(err, workflow.ErrCenterNotAllowed):
		return "That center is not available"
	case errors.Is(err, workflow.ErrPaymentsNotAllowed), errors.Is(err, operator.ErrForbidden):
		return "You cannot record payments on this roster"
	case errors.Is(err, workflow.ErrNotLoaded):
		return "Reload the roster and try again"
	}
	return err.Error()
}

func formInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.FormValue(key))
	return n
}

// handleAttendancePage handles GET /attendance/{kind}
func handleAttendancePage(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	rememberScreen(r)

	view := screen.Snapshot()
	params := parseRosterParams(r.URL.Query())
	roster := projections.QueryGetRosterPage(projections.GetRosterPageQuery{
		Members: view.Roster.Members,
		Params:  params,
	})

	title := "Mark Attendance"
	if screen.Kind() == member.KindCoach {
		title = "Mark Coach Attendance"
	}
	renderTemplate(w, r, "attendance.html", title, attendancePage{
		Kind:   screen.Kind(),
		View:   view,
		Roster: roster,
		Return: params.Query(params.Page),
	}, screen.TakeNotices()...)
}

// rememberScreen stores the last opened screen on the session.
func rememberScreen(r *http.Request) {
	sess := currentSession(r)
	if sess.LastScreen == r.URL.Path {
		return
	}
	sess.LastScreen = r.URL.Path
	if err := services.Sessions.Save(r.Context(), sess); err != nil {
		// Not worth failing the page over.
		logWarn(r, "session_save_failed", err)
	}
}

// handleToggle handles POST /attendance/{kind}/toggle
func handleToggle(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	if _, err := screen.Toggle(formInt(r, "member_id")); err != nil {
		flashError(w, userMessage(err))
	}
	redirectToScreen(w, r, screen)
}

// handleSubmit handles POST /attendance/{kind}/submit
func handleSubmit(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	_, err := screen.Submit(r.Context())
	switch {
	case errors.Is(err, workflow.ErrSubmitInFlight), errors.Is(err, orchestrators.ErrNothingToSubmit):
		flashError(w, userMessage(err))
	case err != nil:
		// The screen queued the failure notice.
		logWarn(r, "attendance_submit_rejected", err)
	}
	redirectToScreen(w, r, screen)
}

// handleSelectCenter handles POST /attendance/{kind}/center
func handleSelectCenter(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	centerID := formInt(r, "center_id")
	if err := screen.SelectCenter(r.Context(), centerID); err != nil {
		flashError(w, userMessage(err))
		redirectToScreen(w, r, screen)
		return
	}

	sess := currentSession(r)
	sess.SelectedCenterID = centerID
	if err := services.Sessions.Save(r.Context(), sess); err != nil {
		logWarn(r, "session_save_failed", err)
	}
	http.Redirect(w, r, "/attendance/"+screen.Kind().Plural(), http.StatusSeeOther)
}

// handleReload handles POST /attendance/{kind}/reload
func handleReload(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	if err := screen.Load(r.Context(), currentSession(r).SelectedCenterID); err != nil {
		flashError(w, userMessage(err))
	}
	redirectToScreen(w, r, screen)
}

// handleOpenPayment handles POST /attendance/{kind}/payment/open
func handleOpenPayment(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	memberID := formInt(r, "member_id")
	if memberID <= 0 {
		flashError(w, payment.ErrNoMember.Error())
	} else if err := screen.OpenPayment(memberID); err != nil {
		flashError(w, userMessage(err))
	}
	redirectToScreen(w, r, screen)
}

// handleCancelPayment handles POST /attendance/{kind}/payment/cancel
func handleCancelPayment(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	screen.ClosePayment()
	redirectToScreen(w, r, screen)
}

// handleSubmitPayment handles POST /attendance/{kind}/payment
func handleSubmitPayment(w http.ResponseWriter, r *http.Request) {
	screen, ok := openScreen(w, r)
	if !ok {
		return
	}
	_, err := screen.SubmitPayment(r.Context(), r.FormValue("amount"))
	switch {
	case errors.Is(err, workflow.ErrPaymentsNotAllowed):
		flashError(w, userMessage(err))
	case err != nil:
		// The screen queued the failure notice.
		logWarn(r, "payment_rejected", err)
	}
	redirectToScreen(w, r, screen)
}
