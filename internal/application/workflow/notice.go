package workflow

// NoticeLevel selects the styling of a flash notice.
type NoticeLevel string

// Notice levels
const (
	NoticeSuccess NoticeLevel = "success"
	NoticeError   NoticeLevel = "error"
)

// Notice is a one-shot message rendered on the next page view.
type Notice struct {
	Level   NoticeLevel
	Message string
}

func success(msg string) Notice { return Notice{Level: NoticeSuccess, Message: msg} }
func failure(msg string) Notice { return Notice{Level: NoticeError, Message: msg} }

// Messages shown after a batch submit.
func submitMessages(coach bool) (ok, failed string) {
	if coach {
		return "Coach attendance submitted successfully!", "Failed to submit coach attendance. Please try again."
	}
	return "Attendance submitted successfully!", "Failed to submit attendance. Please try again."
}
