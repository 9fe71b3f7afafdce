package email

import (
	"bytes"
	"html/template"
)

var notificationTmpl = template.Must(template.New("notification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2933; margin: 0; padding: 24px;">
  <div style="max-width: 560px; margin: 0 auto; border: 1px solid #e4e7eb; border-radius: 8px; padding: 24px;">
    <h2 style="margin-top: 0;">{{.Title}}</h2>
    <p style="line-height: 1.5;">{{.Message}}</p>
    <p style="color: #7b8794; font-size: 12px; margin-bottom: 0;">This is an automated message from the clinic operations portal.</p>
  </div>
</body>
</html>`))

func renderNotification(title, message string) (string, error) {
	var buf bytes.Buffer
	err := notificationTmpl.Execute(&buf, struct {
		Title   string
		Message string
	}{Title: title, Message: message})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
