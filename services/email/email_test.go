package emailsvc

import (
	"bytes"
	"net/mail"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lajunglaworkout/jungla-iberica-sub004/core"
)

var testConf = &core.Config{
	AppName:          "La Jungla",
	DefaultFromEmail: mail.Address{Name: "La Jungla Academy", Address: "noreply@lajungla.test"},
}

func TestConsoleService_SendMessages(t *testing.T) {
	svc := NewConsoleServiceMock(testConf)
	out := new(bytes.Buffer)
	svc.out = out

	svc.SendMessages(
		&core.EmailMessage{
			To:           []mail.Address{{Name: "Ana", Address: "ana@lajungla.test"}},
			Subject:      "Nueva tarea",
			TemplateName: "task_assigned",
			TemplateData: map[string]string{"AssignedBy": "Carlos", "Title": "Grabar bloque 2", "Priority": "high", "DueDate": ""},
		},
		&core.EmailMessage{Subject: "no recipients", BodyStr: "dropped"},
	)

	sent := svc.SentMessages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].TextContent, `Carlos te ha asignado una tarea: "Grabar bloque 2"`)
	assert.NotEmpty(t, sent[0].HTMLContent)

	written := out.String()
	assert.Contains(t, written, "Subject: [La Jungla] Nueva tarea")
	assert.Contains(t, written, `To: "Ana" <ana@lajungla.test>`)
	assert.Equal(t, 2, strings.Count(written, "Content-Type: text/"))
}

func TestConsoleService_UnknownTemplate(t *testing.T) {
	svc := NewConsoleServiceMock(testConf)
	svc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Address: "ana@lajungla.test"}},
		TemplateName: "does_not_exist",
	})
	assert.Empty(t, svc.SentMessages())
}

func TestSendgridService_prepare(t *testing.T) {
	svc := NewSendgridService(testConf, core.NopLogger{})
	m := svc.prepare(core.EmailMessage{
		To:          []mail.Address{{Name: "Ana", Address: "ana@lajungla.test"}},
		Cc:          []mail.Address{{Address: "boss@lajungla.test"}},
		Subject:     "Hola",
		TextContent: "texto",
	})

	require.Len(t, m.Personalizations, 1)
	p := m.Personalizations[0]
	assert.Equal(t, "[La Jungla] Hola", p.Subject)
	require.Len(t, p.To, 1)
	assert.Equal(t, "ana@lajungla.test", p.To[0].Address)
	require.Len(t, p.CC, 1)
	require.Len(t, m.Content, 1, "no html part without html content")
	assert.Equal(t, "text/plain", m.Content[0].Type)
	assert.Equal(t, "noreply@lajungla.test", m.From.Address)
}

func TestNew(t *testing.T) {
	conf := *testConf
	conf.Debug = true
	assert.IsType(t, &ConsoleService{}, New(&conf, core.NopLogger{}))

	conf.Debug = false
	conf.SendgridAPIKey = "SG.key"
	assert.IsType(t, &SendgridService{}, New(&conf, core.NopLogger{}))
}
