package browser

import (
	"testing"

	"github.com/playwright-community/playwright-go"
)

func TestMarkAndSubmitAttendance(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page, "kim")

	if _, err := page.Goto(app.BaseURL + "/attendance/students"); err != nil {
		t.Fatal(err)
	}
	expectText(t, page, "Alice")
	if n, _ := page.GetByText("Gone").Count(); n != 0 {
		t.Error("inactive student listed")
	}

	// Alice: Unset -> Present; Bongani: Unset -> Present -> Absent.
	toggle := func(row string) {
		t.Helper()
		btn := page.Locator("tr", playwright.PageLocatorOptions{HasText: row}).Locator("button.toggle")
		if err := btn.Click(); err != nil {
			t.Fatalf("toggle %s: %v", row, err)
		}
	}
	toggle("Alice")
	toggle("Bongani")
	toggle("Bongani")
	expectText(t, page, "2 marked")

	if err := page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Submit Attendance"}).Click(); err != nil {
		t.Fatal(err)
	}
	expectText(t, page, "Attendance submitted successfully!")
	expectText(t, page, "0 marked")

	marks := app.Backend.marksSeen()
	if len(marks) != 2 {
		t.Fatalf("marks = %d, want 2", len(marks))
	}
	present := map[float64]bool{}
	for _, m := range marks {
		present[m["studentId"].(float64)] = m["present"].(bool)
	}
	if !present[1] || present[2] {
		t.Errorf("marks = %v, want Alice present and Bongani absent", marks)
	}
}

func TestRecordPayment(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page, "kim")

	if _, err := page.Goto(app.BaseURL + "/attendance/students"); err != nil {
		t.Fatal(err)
	}
	row := page.Locator("tr", playwright.PageLocatorOptions{HasText: "Alice"})
	if err := row.GetByRole("button", playwright.LocatorGetByRoleOptions{Name: "Payment"}).Click(); err != nil {
		t.Fatal(err)
	}

	amount := page.Locator("input[name=amount]")
	if err := amount.Fill("-5"); err != nil {
		t.Fatal(err)
	}
	if err := page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Save payment"}).Click(); err != nil {
		t.Fatal(err)
	}
	expectText(t, page, "Enter a valid amount greater than 0")
	if n := len(app.Backend.paymentsSeen()); n != 0 {
		t.Fatalf("payments = %d after an invalid amount", n)
	}

	if err := page.Locator("input[name=amount]").Fill("25"); err != nil {
		t.Fatal(err)
	}
	if err := page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Save payment"}).Click(); err != nil {
		t.Fatal(err)
	}
	expectText(t, page, "Payment recorded successfully")
	payments := app.Backend.paymentsSeen()
	if len(payments) != 1 || payments[0]["amount"].(float64) != 25 {
		t.Errorf("payments = %v", payments)
	}
}

func TestHistoryAndExport(t *testing.T) {
	app := newTestApp(t)
	page := app.newPage(t)
	app.login(t, page, "ceo")

	if _, err := page.Goto(app.BaseURL + "/history/students?center=1&start=2024-05-01&end=2024-05-31"); err != nil {
		t.Fatal(err)
	}
	expectText(t, page, "2024-05-02")
	expectText(t, page, "Bongani")

	download, err := page.ExpectDownload(func() error {
		return page.GetByRole("button", playwright.PageGetByRoleOptions{Name: "Export CSV"}).Click()
	})
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := download.SuggestedFilename(); got != "attendance-center-1.csv" {
		t.Errorf("filename = %q", got)
	}
}
