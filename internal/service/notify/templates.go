package notify

import (
	"bytes"
	"html/template"

	"spadoc/pkg/utils"
)

var visitTemplate = template.Must(template.New("visit").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto; padding: 20px;">
  <h2 style="color: #2563eb; border-bottom: 2px solid #2563eb; padding-bottom: 10px;">New Website Visitor Alert</h2>
  <div style="background: #f8fafc; padding: 20px; border-radius: 10px; margin: 20px 0;">
    <h3 style="color: #334155; margin-top: 0;">Visit Details</h3>
    <p><strong>Page Visited:</strong> {{.Visit.Page}}</p>
    <p><strong>Location:</strong> {{.Location.Label}}</p>
    <p><strong>ISP:</strong> {{.Location.ISP}}</p>
    <p><strong>Time:</strong> {{.Time}}</p>
    <p><strong>Device/Browser:</strong> {{.Visit.UserAgent}}</p>
    <p><strong>Referrer:</strong> {{if .Visit.Referrer}}{{.Visit.Referrer}}{{else}}Direct visit{{end}}</p>
    <p><strong>Visitor Type:</strong> {{if .Visit.IsNewVisitor}}New Visitor{{else}}Returning Visitor{{end}}</p>
    {{- if .Location.Coords}}
    <p><strong>Coordinates:</strong> {{.Location.Coords}}</p>
    {{- end}}
    <p style="font-size: 0.9em; color: #64748b;"><strong>IP:</strong> {{.Visit.IP}}</p>
  </div>
  <div style="text-align: center; margin-top: 30px; padding-top: 20px; border-top: 1px solid #e5e7eb;">
    <p style="color: #64748b; font-size: 14px;">
      This notification was sent automatically by your Spa Doctors website.<br>
      <a href="{{.AdminURL}}" style="color: #2563eb;">Visit Admin Dashboard</a> to manage notification settings.
    </p>
  </div>
</div>
`))

var contactTemplate = template.Must(template.New("contact").Funcs(template.FuncMap{
	"phone": utils.FormatPhoneNumberForDisplay,
}).Parse(`<h2>New Service Request from Spa Doctors Website</h2>
<p><strong>Name:</strong> {{.Request.Name}}</p>
<p><strong>Phone:</strong> {{phone .Request.Phone}}</p>
{{- if .Request.Email}}
<p><strong>Email:</strong> {{.Request.Email}}</p>
{{- end}}
<p><strong>Zipcode:</strong> {{.Request.Zipcode}}</p>
<p><strong>Service Requested:</strong> {{.Service}}</p>
<p><strong>Source:</strong> {{.Source}}</p>
<p><strong>Message:</strong></p>
<p>{{.Request.Message}}</p>
<hr>
<p><em>Submitted on: {{.Time}}</em></p>
`))

func render(t *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
