package sheets

import (
	"context"
	"fmt"
	"os"

	"google.golang.org/api/option"
	sheetsv4 "google.golang.org/api/sheets/v4"
)

// Client talks to the Google Sheets API for rider-list spreadsheets.
type Client struct {
	srv *sheetsv4.Service
}

// NewClient creates a Sheets client from a service account credentials file.
func NewClient(ctx context.Context, credentialsFile string) (*Client, error) {
	if _, err := os.Stat(credentialsFile); err != nil {
		return nil, fmt.Errorf("service account json: %w", err)
	}
	srv, err := sheetsv4.NewService(ctx,
		option.WithCredentialsFile(credentialsFile),
		option.WithScopes(sheetsv4.SpreadsheetsScope),
	)
	if err != nil {
		return nil, err
	}
	return &Client{srv: srv}, nil
}

// Rows returns all rows of the rider-list sheet, header included.
func (c *Client) Rows(docID string) ([][]interface{}, error) {
	resp, err := c.srv.Spreadsheets.Values.Get(docID, "A:Z").Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

// UpdateRow rewrites one row in place. rowNum is 1-indexed as in A1 notation.
func (c *Client) UpdateRow(docID string, rowNum int, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	rng := fmt.Sprintf("A%d:Z%d", rowNum, rowNum)
	_, err := c.srv.Spreadsheets.Values.Update(docID, rng, vr).
		ValueInputOption("RAW").
		Do()
	return err
}

// AppendRow adds a row after the existing data.
func (c *Client) AppendRow(docID string, row []interface{}) error {
	vr := &sheetsv4.ValueRange{Values: [][]interface{}{row}}
	_, err := c.srv.Spreadsheets.Values.Append(docID, "A:Z", vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Do()
	return err
}
