// Package applog writes structured JSON log lines through the standard logger.
package applog

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gin-gonic/gin"
)

// RequestIDKey is the gin context key holding the request id
const RequestIDKey = "request_id"

type entry struct {
	TS        string         `json:"ts"`
	Level     string         `json:"level"`
	ReqID     string         `json:"req_id,omitempty"`
	IP        string         `json:"ip,omitempty"`
	Method    string         `json:"method,omitempty"`
	Path      string         `json:"path,omitempty"`
	UserID    string         `json:"user_id,omitempty"`
	Action    string         `json:"action,omitempty"`
	Status    int            `json:"status,omitempty"`
	LatencyMs int64          `json:"latency_ms,omitempty"`
	Err       string         `json:"err,omitempty"`
	Fields    map[string]any `json:"fields,omitempty"`
}

func newEntry(level string, c *gin.Context, action string, err error, fields map[string]any) entry {
	e := entry{TS: time.Now().UTC().Format(time.RFC3339), Level: level, Action: action, Fields: fields}
	if c != nil {
		e.IP = c.ClientIP()
		e.Method = c.Request.Method
		e.Path = c.Request.URL.Path
		e.Status = c.Writer.Status()
		e.ReqID = c.GetString(RequestIDKey)
		e.UserID = c.GetString("user_id")
	}
	if err != nil {
		e.Err = err.Error()
	}
	return e
}

func write(e entry) {
	b, _ := json.Marshal(e)
	log.Println(string(b))
}

// Info records a routine event. c may be nil outside a request.
func Info(c *gin.Context, action string, fields map[string]any) {
	write(newEntry("info", c, action, nil, fields))
}

// Audit records a state change worth keeping (orders, reviews, account changes)
func Audit(c *gin.Context, action string, fields map[string]any) {
	write(newEntry("audit", c, action, nil, fields))
}

// Security records a rejected or suspicious request
func Security(c *gin.Context, action string, fields map[string]any) {
	write(newEntry("warn", c, action, nil, fields))
}

// Error records a failure; err is logged but never sent to clients
func Error(c *gin.Context, action string, err error, fields map[string]any) {
	write(newEntry("error", c, action, err, fields))
}

// Access records a finished request with its latency
func Access(c *gin.Context, latency time.Duration) {
	e := newEntry("info", c, "http.request", nil, nil)
	e.LatencyMs = latency.Milliseconds()
	write(e)
}
