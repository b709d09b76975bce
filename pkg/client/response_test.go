package client

import (
	"net/http"
	"testing"
)

func TestResponse_Reason(t *testing.T) {
	tests := []struct {
		name     string
		response *Response
		expected string
	}{
		{
			name:     "status line with phrase",
			response: &Response{StatusCode: 404, Status: "404 Not Found"},
			expected: "Not Found",
		},
		{
			name:     "multi word phrase",
			response: &Response{StatusCode: 500, Status: "500 Internal Server Error"},
			expected: "Internal Server Error",
		},
		{
			name:     "bare status falls back to the standard phrase",
			response: &Response{StatusCode: 200, Status: "200"},
			expected: "OK",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.response.Reason(); got != tt.expected {
				t.Errorf("Reason() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestResponse_IsSuccess(t *testing.T) {
	tests := []struct {
		statusCode int
		expected   bool
	}{
		{199, false},
		{200, true},
		{204, true},
		{299, true},
		{300, false},
		{302, false},
		{404, false},
		{500, false},
	}

	for _, tt := range tests {
		r := &Response{StatusCode: tt.statusCode}
		if got := r.IsSuccess(); got != tt.expected {
			t.Errorf("IsSuccess(%d) = %v, want %v", tt.statusCode, got, tt.expected)
		}
	}
}

func TestResponse_JSON(t *testing.T) {
	r := &Response{
		StatusCode: 200,
		Headers:    http.Header{},
		Body:       []byte(`{"name":"widget","count":3}`),
	}

	var decoded struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}
	if err := r.JSON(&decoded); err != nil {
		t.Fatalf("JSON() failed: %v", err)
	}
	if decoded.Name != "widget" || decoded.Count != 3 {
		t.Errorf("decoded = %+v, want name=widget count=3", decoded)
	}
}
