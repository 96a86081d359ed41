package service

import (
	"bytes"
	"html/template"
)

// 邮件正文模板，html/template 会转义用户输入
var (
	resetPasswordTmpl = template.Must(template.New("reset").Parse(`
<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h1 style="color: #9a8457;">Password Reset Request</h1>
  <p>Hello {{.Name}},</p>
  <p>You have requested to reset your password. Click the link below to set a new password:</p>
  <p><a href="{{.Link}}" style="background-color: #9a8457; color: white; padding: 12px 32px; text-decoration: none; border-radius: 8px;">Reset Password</a></p>
  <p>Or copy and paste this link in your browser:</p>
  <p>{{.Link}}</p>
  <p style="color: #ef4444;">This link is valid for 15 minutes only.</p>
  <p>If you did not request this password reset, please ignore this email.</p>
</div>`))

	productQueryTmpl = template.Must(template.New("query").Parse(`
<div style="font-family: Arial, sans-serif; line-height: 1.6;">
  <h2 style="color:#9a8457;">Customer Product Query</h2>
  <p><strong>Product Name:</strong> {{.ProductName}}</p>
  <p><strong>Product ID:</strong> {{.ProductID}}</p>
  {{if .ProductURL}}<p><strong>Product Link:</strong> <a href="{{.ProductURL}}">{{.ProductURL}}</a></p>{{end}}
  <hr/>
  <p><strong>Preferred Size:</strong> {{or .Size "Not specified"}}</p>
  <p><strong>Message:</strong></p>
  <p>{{or .Message "No message provided."}}</p>
  <hr/>
  <p><strong>Customer Email:</strong> {{.Email}}</p>
  {{if .Name}}<p><strong>Name:</strong> {{.Name}}</p>{{end}}
</div>`))

	queryConfirmTmpl = template.Must(template.New("query-confirm").Parse(`
<div style="font-family: Arial, sans-serif;">
  <p>Hi {{or .Name "there"}},</p>
  <p>Thank you for reaching out to us regarding <strong>{{.ProductName}}</strong>.</p>
  <p>Our team will get back to you soon with more details.</p>
  <hr/>
  <p><em>Your query summary:</em></p>
  <ul>
    {{if .Size}}<li>Preferred Size: {{.Size}}</li>{{end}}
    {{if .Message}}<li>Message: {{.Message}}</li>{{end}}
    {{if .ProductURL}}<li><a href="{{.ProductURL}}">Product Link</a></li>{{end}}
  </ul>
</div>`))

	customRequestTmpl = template.Must(template.New("custom").Parse(`
<h2>New Custom Jewelry Request</h2>
<p><b>Name:</b> {{.Name}}</p>
<p><b>Email:</b> {{.Email}}</p>
<p><b>Phone:</b> {{.Phone}}</p>
<p><b>Inspiration:</b> {{or .Inspiration "Not provided"}}</p>
<p><b>Special Requests:</b> {{or .SpecialRequests "Not provided"}}</p>
{{if .ImageCount}}<p><b>Reference Images:</b> {{.ImageCount}} file(s) attached.</p>{{else}}<p><i>No reference images uploaded.</i></p>{{end}}`))

	franchiseTmpl = template.Must(template.New("franchise").Parse(`
<h2>Franchise Inquiry Details</h2>
<p><strong>Name:</strong> {{.FullName}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Phone:</strong> {{.Phone}}</p>
<p><strong>Preferred Location:</strong> {{or .Location "Not specified"}}</p>
<p><strong>Investment Capacity:</strong> {{or .Investment "Not specified"}}</p>
<p><strong>Business Experience:</strong> {{or .Experience "Not specified"}}</p>
<p><strong>Message:</strong></p>
<p>{{or .Message "No additional details provided."}}</p>`))
)

func renderTemplate(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
