package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

var codeTemplate = template.Must(template.New("code").Parse(
	`{{.Intro}}<br/>
<br/>
인증코드: <strong>{{.Code}}</strong><br/>
<br/>
이 코드는 {{.ValidMinutes}}분 동안 유효합니다.`))

// Rendered is a subject and an HTML body ready for a Sender.
type Rendered struct {
	Subject string
	Body    string
}

type codeData struct {
	Intro        string
	Code         string
	ValidMinutes int
}

// SignupCode renders the email-verification message sent before signup.
func SignupCode(appName, code string, validMinutes int) (Rendered, error) {
	return renderCode(
		fmt.Sprintf("%s 인증 메일", appName),
		"아래 이메일 인증 코드를 앱에서 입력해주세요.",
		code, validMinutes,
	)
}

// PasswordResetCode renders the message sent when a user forgot their password.
func PasswordResetCode(appName, code string, validMinutes int) (Rendered, error) {
	return renderCode(
		fmt.Sprintf("%s 새 비밀번호 인증 메일", appName),
		"비밀번호를 재설정하려면 아래 인증 코드를 앱에서 입력해주세요.",
		code, validMinutes,
	)
}

func renderCode(subject, intro, code string, validMinutes int) (Rendered, error) {
	var buf bytes.Buffer
	if err := codeTemplate.Execute(&buf, codeData{Intro: intro, Code: code, ValidMinutes: validMinutes}); err != nil {
		return Rendered{}, fmt.Errorf("mailer: render template: %w", err)
	}
	return Rendered{Subject: subject, Body: buf.String()}, nil
}
