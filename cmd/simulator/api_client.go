package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// APIClient handles HTTP communication with the backend
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	return &APIClient{
		baseURL: baseURL + "/api/v1",
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Response types matching backend

type KeyStatus struct {
	CoupleKey   *string `json:"couple_key"`
	Gender      *string `json:"gender"`
	IsConnected bool    `json:"is_connected"`
}

type ConnectResult struct {
	Status            string    `json:"status"`
	CoupleID          uint64    `json:"couple_id"`
	PartnerID         uint64    `json:"partner_id"`
	PartnerNickname   string    `json:"partner_nickname"`
	ConnectedAt       time.Time `json:"connected_at"`
	WaitingForPartner bool      `json:"waiting_for_partner"`
}

type CoupleInfo struct {
	IsConnected bool    `json:"is_connected"`
	CoupleID    *uint64 `json:"couple_id"`
	Partner     *struct {
		ID       uint64 `json:"id"`
		Nickname string `json:"nickname"`
	} `json:"partner"`
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SelectGender picks the user's role; the response carries the freshly issued key.
func (c *APIClient) SelectGender(token, gender string) (*KeyStatus, error) {
	var status KeyStatus
	if err := c.do(http.MethodPut, "/couple/gender", token, map[string]string{"gender": gender}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *APIClient) MyKey(token string) (*KeyStatus, error) {
	var status KeyStatus
	if err := c.do(http.MethodGet, "/couple/my-key", token, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

func (c *APIClient) Connect(token, partnerKey string) (*ConnectResult, error) {
	var result ConnectResult
	body := map[string]string{"partner_couple_key": partnerKey}
	if err := c.do(http.MethodPost, "/couple/connect", token, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *APIClient) Info(token string) (*CoupleInfo, error) {
	var info CoupleInfo
	if err := c.do(http.MethodGet, "/couple/info", token, nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

func (c *APIClient) do(method, path, token string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}

	if resp.StatusCode >= 300 {
		var apiErr apiError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error.Code != "" {
			return fmt.Errorf("%s %s: %s (%s)", method, path, apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("%s %s: status %d: %s", method, path, resp.StatusCode, string(data))
	}

	if out == nil {
		return nil
	}
	return json.Unmarshal(data, out)
}
