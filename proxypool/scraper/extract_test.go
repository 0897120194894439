package scraper

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"proxyharvester/proxypool/model"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want model.Candidate
		ok   bool
	}{
		{name: "plain", text: "10.0.0.1:8080", want: "10.0.0.1:8080", ok: true},
		{name: "table cells", text: "1.2.3.4</td><td>3128", want: "1.2.3.4:3128", ok: true},
		{name: "space separated", text: "  192.168.1.1   80  ", want: "192.168.1.1:80", ok: true},
		{name: "boundary octets", text: "0.0.0.0:10", want: "0.0.0.0:10", ok: true},
		{name: "max octets", text: "255.255.255.255:65535", want: "255.255.255.255:65535", ok: true},
		{name: "first match wins", text: "5.6.7.8:1111 and 9.9.9.9:2222", want: "5.6.7.8:1111", ok: true},
		{name: "leading zeros in port normalized", text: "5.6.7.8:0080", want: "5.6.7.8:80", ok: true},
		{name: "proxy url", text: "http://8.8.4.4:3128/", want: "8.8.4.4:3128", ok: true},
		{name: "skips bad address before good", text: "999.1.1.1:80 10.0.0.2:3128", want: "10.0.0.2:3128", ok: true},
		{name: "bad text", text: "bad-text", ok: false},
		{name: "empty", text: "", ok: false},
		{name: "octet 256 first", text: "256.1.1.1:8080", ok: false},
		{name: "octet 300 middle", text: "1.300.1.1:8080", ok: false},
		{name: "octet too long last", text: "1.2.3.2555:8080", ok: false},
		{name: "three octets", text: "1.2.3:8080", ok: false},
		{name: "no port", text: "1.2.3.4", ok: false},
		{name: "one digit port", text: "1.2.3.4:8", ok: false},
		{name: "six digit port", text: "1.2.3.4:123456", ok: false},
		{name: "port out of range", text: "1.2.3.4:70000", ok: false},
		{name: "port zero", text: "1.2.3.4:00", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Extract(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtract_WellFormedAlwaysFound(t *testing.T) {
	r := rand.New(rand.NewSource(1))
	noise := []string{"", "ip: ", "<td>", "proxy ", "x "}
	for i := 0; i < 2000; i++ {
		addr := fmt.Sprintf("%d.%d.%d.%d:%d", r.Intn(256), r.Intn(256), r.Intn(256), r.Intn(256), 10+r.Intn(65526))
		text := noise[r.Intn(len(noise))] + addr + " " + noise[r.Intn(len(noise))]

		got, ok := Extract(text)
		if !assert.True(t, ok, text) || !assert.Equal(t, model.Candidate(addr), got, text) {
			return
		}
	}
}

func TestExtract_OctetAbove255NeverMatches(t *testing.T) {
	r := rand.New(rand.NewSource(2))
	for i := 0; i < 2000; i++ {
		octets := []int{r.Intn(256), r.Intn(256), r.Intn(256), r.Intn(256)}
		octets[r.Intn(4)] = 256 + r.Intn(744)
		text := fmt.Sprintf("%d.%d.%d.%d:%d", octets[0], octets[1], octets[2], octets[3], 10+r.Intn(65526))

		got, ok := Extract(text)
		if !assert.False(t, ok, "%s extracted as %s", text, got) {
			return
		}
	}
}
