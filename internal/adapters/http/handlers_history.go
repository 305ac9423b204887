package web

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"academy/internal/application/orchestrators"
	"academy/internal/application/projections"
	"academy/internal/application/workflow"
	"academy/internal/domain/attendance"
	"academy/internal/domain/center"
	"academy/internal/domain/export"
	"academy/internal/domain/member"
	"academy/internal/domain/operator"
)

// recentDeliveries is how many emailed exports the history page lists.
const recentDeliveries = 5

// historyForm is the center and date picker state shared by history, export and email.
type historyForm struct {
	CenterID int
	Range    attendance.DateRange
}

func parseHistoryForm(v url.Values) historyForm {
	id, _ := strconv.Atoi(strings.TrimSpace(v.Get("center")))
	return historyForm{
		CenterID: id,
		Range: attendance.DateRange{
			Start: strings.TrimSpace(v.Get("start")),
			End:   strings.TrimSpace(v.Get("end")),
		},
	}
}

// Submitted reports whether the operator asked for anything yet.
func (f historyForm) Submitted() bool {
	return f.CenterID != 0 || f.Range.Start != "" || f.Range.End != ""
}

// Query encodes the form for redirects and export links.
func (f historyForm) Query() string {
	v := url.Values{}
	if f.CenterID != 0 {
		v.Set("center", strconv.Itoa(f.CenterID))
	}
	if f.Range.Start != "" {
		v.Set("start", f.Range.Start)
	}
	if f.Range.End != "" {
		v.Set("end", f.Range.End)
	}
	return v.Encode()
}

// historyPage is the data of history.html.
type historyPage struct {
	Kind       member.Kind
	Form       historyForm
	Centers    []center.Center
	History    *projections.GetAttendanceHistoryResult
	Deliveries []export.Delivery
}

// historyKind parses {kind} and checks the operator may browse that history.
func historyKind(w http.ResponseWriter, r *http.Request) (member.Kind, bool) {
	kind, ok := pathKind(w, r)
	if !ok {
		return "", false
	}
	role := currentSession(r).Operator.Role
	if _, err := operator.CapabilitiesFor(role, kind); err != nil || !operator.CanViewHistory(role) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return "", false
	}
	return kind, true
}

func redirectToHistory(w http.ResponseWriter, r *http.Request, kind member.Kind, form historyForm) {
	target := "/history/" + kind.Plural()
	if q := form.Query(); q != "" {
		target += "?" + q
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// handleHistory handles GET /history/{kind}
func handleHistory(w http.ResponseWriter, r *http.Request) {
	kind, ok := historyKind(w, r)
	if !ok {
		return
	}
	sess := currentSession(r)
	ctx := r.Context()

	form := parseHistoryForm(r.URL.Query())
	data := historyPage{
		Kind: kind,
		Form: form,
		Centers: projections.QueryGetHistoryCenters(ctx, projections.GetHistoryCentersQuery{
			Token:    sess.Token,
			Operator: sess.Operator,
		}, projections.GetHistoryCentersDeps{API: services.API}),
	}
	if data.Form.CenterID == 0 && len(data.Centers) == 1 {
		data.Form.CenterID = data.Centers[0].ID
	}

	status := http.StatusOK
	var notices []workflow.Notice
	if form.Submitted() {
		result, err := projections.QueryGetAttendanceHistory(ctx, projections.GetAttendanceHistoryQuery{
			Token:    sess.Token,
			Operator: sess.Operator,
			Kind:     kind,
			CenterID: form.CenterID,
			Range:    form.Range,
		}, projections.GetAttendanceHistoryDeps{API: services.API})
		switch {
		case errors.Is(err, operator.ErrForbidden):
			http.Error(w, "Forbidden", http.StatusForbidden)
			return
		case err != nil:
			notices = append(notices, workflow.Notice{Level: workflow.NoticeError, Message: err.Error()})
			if !errors.Is(err, projections.ErrHistoryFetchFailed) {
				status = http.StatusBadRequest
			}
		default:
			data.History = &result
		}
	}

	deliveries, err := services.Deliveries.ListRecent(ctx, sess.Operator.ID, recentDeliveries)
	if err != nil {
		logWarn(r, "deliveries_list_failed", err)
	}
	data.Deliveries = deliveries

	title := "Student Attendance History"
	if kind == member.KindCoach {
		title = "Coach Attendance History"
	}
	renderStatus(w, r, status, "history.html", title, data, notices...)
}

// handleExport handles GET /history/{kind}/export
func handleExport(w http.ResponseWriter, r *http.Request) {
	kind, ok := historyKind(w, r)
	if !ok {
		return
	}
	sess := currentSession(r)
	form := parseHistoryForm(r.URL.Query())

	file, err := orchestrators.ExecuteExportAttendance(r.Context(), orchestrators.ExportAttendanceInput{
		Token:    sess.Token,
		Operator: sess.Operator,
		Kind:     kind,
		CenterID: form.CenterID,
		Range:    form.Range,
	}, orchestrators.ExportAttendanceDeps{API: services.API})
	if errors.Is(err, operator.ErrForbidden) {
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	}
	if err != nil {
		flashError(w, err.Error())
		redirectToHistory(w, r, kind, form)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+file.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(file.Content)))
	w.Write(file.Content)
}

// handleEmailExport handles POST /history/{kind}/email
func handleEmailExport(w http.ResponseWriter, r *http.Request) {
	kind, ok := historyKind(w, r)
	if !ok {
		return
	}
	sess := currentSession(r)
	if err := r.ParseForm(); err != nil {
		http.Error(w, "Bad request", http.StatusBadRequest)
		return
	}
	form := parseHistoryForm(r.PostForm)

	delivery, err := orchestrators.ExecuteEmailExport(r.Context(), orchestrators.EmailExportInput{
		Token:     sess.Token,
		Operator:  sess.Operator,
		Kind:      kind,
		CenterID:  form.CenterID,
		Range:     form.Range,
		Recipient: strings.TrimSpace(r.PostForm.Get("recipient")),
	}, orchestrators.EmailExportDeps{
		API:        services.API,
		Sender:     services.Email,
		Deliveries: services.Deliveries,
		Validate:   services.Validate,
		Now:        services.Now,
	})
	switch {
	case errors.Is(err, operator.ErrForbidden):
		http.Error(w, "Forbidden", http.StatusForbidden)
		return
	case err != nil:
		flashError(w, err.Error())
	default:
		flashSuccess(w, "Export sent to "+delivery.Recipient)
	}
	redirectToHistory(w, r, kind, form)
}
