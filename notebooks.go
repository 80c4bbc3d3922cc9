package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
)

type notebook struct {
	ID                   string    `json:"id"`
	DisplayName          string    `json:"displayName"`
	UserRole             string    `json:"userRole"`
	IsShared             bool      `json:"isShared"`
	IsDefault            bool      `json:"isDefault"`
	LastModifiedDateTime time.Time `json:"lastModifiedDateTime"`
}

type notebookPage struct {
	Value    []notebook `json:"value"`
	NextLink string     `json:"@odata.nextLink"`
}

// graphError is the error envelope Graph returns on non-2xx responses.
type graphError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func decodeGraphError(tx *Transaction) error {
	var ge graphError
	if err := json.Unmarshal(tx.Body, &ge); err == nil && ge.Error.Code != "" {
		return fmt.Errorf("graph returned %s: %s: %s", tx.Response.Status, ge.Error.Code, ge.Error.Message)
	}
	return fmt.Errorf("graph returned %s: %s", tx.Response.Status, truncate(strings.TrimSpace(string(tx.Body)), maxErrorBody))
}

// renderNotebooks prints the notebooks in tx as a table. Only the first page
// is shown; a note is added when Graph reports more.
func renderNotebooks(w io.Writer, tx *Transaction) error {
	if !tx.OK() {
		return decodeGraphError(tx)
	}

	var page notebookPage
	if err := json.Unmarshal(tx.Body, &page); err != nil {
		return fmt.Errorf("failed to parse notebooks response: %w", err)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleRounded)
	t.AppendHeader(table.Row{"Name", "Role", "Shared", "Last modified", "ID"})
	for _, nb := range page.Value {
		name := nb.DisplayName
		if nb.IsDefault {
			name += " (default)"
		}
		modified := ""
		if !nb.LastModifiedDateTime.IsZero() {
			modified = nb.LastModifiedDateTime.Local().Format("2006-01-02 15:04")
		}
		t.AppendRow(table.Row{name, nb.UserRole, yesNo(nb.IsShared), modified, nb.ID})
	}
	t.Render()

	fmt.Fprintf(w, "%d notebook(s)\n", len(page.Value))

	if page.NextLink != "" {
		fmt.Fprintln(w, "More notebooks are available; only the first page is shown.")
	}
	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
