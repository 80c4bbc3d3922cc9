package main

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
)

const (
	requestPrefix  = "< "
	responsePrefix = "> "
)

// writeTransaction prints tx as request head lines prefixed "< ", response
// head lines prefixed "> ", then the response body verbatim.
func writeTransaction(w io.Writer, tx *Transaction) error {
	var head bytes.Buffer
	// Body is nil for our GET, so Write emits only the head as sent.
	if err := tx.Request.Write(&head); err != nil {
		return fmt.Errorf("failed to dump request: %w", err)
	}

	var out bytes.Buffer
	writePrefixed(&out, requestPrefix, head.String())

	resp := tx.Response
	head.Reset()
	fmt.Fprintf(&head, "%s %s\r\n", resp.Proto, resp.Status)
	if err := resp.Header.Write(&head); err != nil {
		return fmt.Errorf("failed to dump response headers: %w", err)
	}
	head.WriteString("\r\n")
	writePrefixed(&out, responsePrefix, head.String())

	out.Write(tx.Body)
	if len(tx.Body) > 0 && !bytes.HasSuffix(tx.Body, []byte("\n")) {
		out.WriteByte('\n')
	}

	_, err := w.Write(out.Bytes())
	return err
}

// writePrefixed writes each CRLF- or LF-terminated line of head with prefix.
func writePrefixed(out *bytes.Buffer, prefix, head string) {
	sc := bufio.NewScanner(strings.NewReader(head))
	for sc.Scan() {
		out.WriteString(prefix)
		out.WriteString(strings.TrimRight(sc.Text(), "\r"))
		out.WriteByte('\n')
	}
}
