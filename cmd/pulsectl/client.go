package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// apiClient is a thin JSON client for the HomePulse REST API.
type apiClient struct {
	http *resty.Client
}

func newAPIClient(baseURL string) *apiClient {
	return &apiClient{
		http: resty.New().
			SetBaseURL(baseURL).
			SetHeader("Content-Type", "application/json").
			// Digest generation can take minutes.
			SetTimeout(5 * time.Minute),
	}
}

func (c *apiClient) get(path string, out io.Writer) error {
	resp, err := c.http.R().Get(path)
	if err != nil {
		return err
	}
	return printResponse(resp, out)
}

func (c *apiClient) post(path string, body interface{}, out io.Writer) error {
	req := c.http.R()
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Post(path)
	if err != nil {
		return err
	}
	return printResponse(resp, out)
}

func (c *apiClient) delete(path string, out io.Writer) error {
	resp, err := c.http.R().Delete(path)
	if err != nil {
		return err
	}
	return printResponse(resp, out)
}

func printResponse(resp *resty.Response, out io.Writer) error {
	if resp.StatusCode() >= 300 {
		return fmt.Errorf("http %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	var decoded interface{}
	if err := json.Unmarshal(resp.Body(), &decoded); err != nil {
		_, werr := out.Write(resp.Body())
		return werr
	}
	pretty, err := json.MarshalIndent(decoded, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, string(pretty))
	return err
}
