package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AdminClient handles calls to the slot service's admin API.
type AdminClient struct {
	BaseURL    string
	HTTPClient *http.Client
}

func NewAdminClient(baseURL string) *AdminClient {
	return &AdminClient{
		BaseURL: baseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// APIError represents an error response from the API.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

type generateRequest struct {
	Date     string           `json:"date"`
	Open     bool             `json:"open"`
	Capacity int              `json:"capacity"`
	Ranges   []hourRangeInput `json:"ranges"`
}

type hourRangeInput struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type generateResponse struct {
	Date      string `json:"date"`
	Requested int    `json:"requested"`
	Created   int    `json:"created"`
}

type reconcileRequest struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type reconcileResponse struct {
	Corrections []slotCorrection `json:"corrections"`
}

type slotCorrection struct {
	SlotID          string `json:"SlotID"`
	Date            string `json:"Date"`
	StartTime       string `json:"StartTime"`
	StoredUnits     int    `json:"StoredUnits"`
	RecomputedUnits int    `json:"RecomputedUnits"`
}

// GenerateSlots sends POST /admin/slots/generate.
func (c *AdminClient) GenerateSlots(req generateRequest) (*generateResponse, error) {
	var result generateResponse
	if err := c.postJSON("/admin/slots/generate", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CloseSlot sends PATCH /admin/slots/{id}/close.
func (c *AdminClient) CloseSlot(slotID string) error {
	return c.patch(fmt.Sprintf("/admin/slots/%s/close", slotID))
}

// ReopenSlot sends PATCH /admin/slots/{id}/reopen.
func (c *AdminClient) ReopenSlot(slotID string) error {
	return c.patch(fmt.Sprintf("/admin/slots/%s/reopen", slotID))
}

// Reconcile sends POST /admin/reconcile.
func (c *AdminClient) Reconcile(from, to string) (*reconcileResponse, error) {
	var result reconcileResponse
	if err := c.postJSON("/admin/reconcile", reconcileRequest{From: from, To: to}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *AdminClient) postJSON(path string, req any, out any) error {
	bodyBytes, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequest(http.MethodPost, c.BaseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Add("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}

	return nil
}

func (c *AdminClient) patch(path string) error {
	httpReq, err := http.NewRequest(http.MethodPatch, c.BaseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.HTTPClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		respBody, _ := io.ReadAll(resp.Body)
		return &APIError{StatusCode: resp.StatusCode, Message: string(respBody)}
	}

	return nil
}
