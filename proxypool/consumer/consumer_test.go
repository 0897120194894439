package consumer

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"proxyharvester/proxypool/model"
)

func TestPrinter_LiveAndDied(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Consume(context.Background(), model.Generation{Number: 1, Proxies: []model.Candidate{"1.1.1.1:80", "2.2.2.2:80"}})
	assert.Equal(t, "[LIVE] 1.1.1.1:80\n[LIVE] 2.2.2.2:80\n", buf.String())

	buf.Reset()
	p.Consume(context.Background(), model.Generation{Number: 2, Proxies: []model.Candidate{"2.2.2.2:80"}})
	assert.Equal(t, "[LIVE] 2.2.2.2:80\n[DIED] 1.1.1.1:80\n", buf.String())
}

func TestPrinter_SkipsStaleGenerations(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Consume(context.Background(), model.Generation{Number: 3, Proxies: []model.Candidate{"3.3.3.3:80"}})
	buf.Reset()

	p.Consume(context.Background(), model.Generation{Number: 3, Proxies: []model.Candidate{"3.3.3.3:80"}})
	p.Consume(context.Background(), model.Generation{Number: 2, Proxies: []model.Candidate{"4.4.4.4:80"}})
	assert.Empty(t, buf.String())
}

func TestPrinter_Colors(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, true)

	p.Consume(context.Background(), model.Generation{Number: 1, Proxies: []model.Candidate{"1.1.1.1:80"}})
	assert.Contains(t, buf.String(), "\x1b[")
	assert.Contains(t, buf.String(), "1.1.1.1:80")
}

func TestNoop(t *testing.T) {
	assert.NotPanics(t, func() {
		Noop{}.Consume(context.Background(), model.Generation{Number: 1})
	})
}
