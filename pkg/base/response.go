package base

import (
	"bufio"
	"fmt"
	"strconv"
)

// Response is a RTSP response.
type Response struct {
	StatusCode    StatusCode
	StatusMessage string
	Header        *Header
	Body          []byte
}

// ReadResponse parses one RTSP response from rb.
func ReadResponse(rb *bufio.Reader) (*Response, error) {
	startLine, err := readLine(rb, MaxRequestSize)
	if err != nil {
		return nil, fmt.Errorf("malformed start line: %w", err)
	}

	sp1 := indexByte(startLine, ' ')
	if sp1 < 0 {
		return nil, fmt.Errorf("malformed status line: %q", startLine)
	}
	proto := startLine[:sp1]
	rest := startLine[sp1+1:]

	if proto != "RTSP/1.0" {
		return nil, fmt.Errorf("unsupported protocol version: %q", proto)
	}

	sp2 := indexByte(rest, ' ')
	if sp2 < 0 {
		return nil, fmt.Errorf("malformed status line: %q", startLine)
	}
	codeStr := rest[:sp2]
	msg := rest[sp2+1:]

	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return nil, fmt.Errorf("invalid status code: %q", codeStr)
	}

	h, err := readHeader(rb)
	if err != nil {
		return nil, err
	}

	body, err := readBody(rb, h)
	if err != nil {
		return nil, err
	}

	return &Response{
		StatusCode:    StatusCode(code),
		StatusMessage: msg,
		Header:        h,
		Body:          body,
	}, nil
}

// Marshal serializes a Response: status line `RTSP/1.0 <code> <reason>`,
// then CSeq first (if set), then remaining headers in insertion order,
// with Content-Length auto-appended when a body is present (spec.md
// §4.1).
func (r *Response) Marshal() []byte {
	if r.Header == nil {
		r.Header = NewHeader()
	}
	if r.StatusMessage == "" {
		r.StatusMessage = r.StatusCode.Message()
	}
	if len(r.Body) > 0 {
		r.Header.Set("Content-Length", strconv.Itoa(len(r.Body)))
	}

	var buf []byte
	buf = append(buf, "RTSP/1.0 "...)
	buf = append(buf, strconv.Itoa(int(r.StatusCode))...)
	buf = append(buf, ' ')
	buf = append(buf, r.StatusMessage...)
	buf = append(buf, "\r\n"...)

	// CSeq first, by spec.md §4.1; everything else follows insertion order.
	if r.Header.Has("CSeq") {
		buf = append(buf, "CSeq: "...)
		buf = append(buf, r.Header.Get("CSeq")...)
		buf = append(buf, "\r\n"...)
	}
	for _, k := range r.Header.Keys() {
		if k == "CSeq" {
			continue
		}
		for _, v := range r.Header.Values(k) {
			buf = append(buf, k...)
			buf = append(buf, ':', ' ')
			buf = append(buf, v...)
			buf = append(buf, '\r', '\n')
		}
	}
	buf = append(buf, '\r', '\n')
	buf = append(buf, r.Body...)
	return buf
}
