package scraper

import (
	"regexp"
	"strconv"

	"proxyharvester/proxypool/model"
)

const octet = `(?:25[0-5]|2[0-4]\d|1\d\d|[1-9]?\d)`

// candidatePattern matches a dotted-quad followed, possibly after other text,
// by a 2-5 digit port. Word boundaries keep 256.1.1.1 from matching as 56.1.1.1
// and stop a longer number from being cut into a port.
var candidatePattern = regexp.MustCompile(`\b(` + octet + `(?:\.` + octet + `){3})\b.*?\b(\d{2,5})\b`)

// Extract 返回 text 中第一个 "ip:port"。端口必须在 1..65535 之间。
func Extract(text string) (model.Candidate, bool) {
	m := candidatePattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	port, err := strconv.Atoi(m[2])
	if err != nil || port < 1 || port > 65535 {
		return "", false
	}
	return model.Candidate(m[1] + ":" + strconv.Itoa(port)), true
}
