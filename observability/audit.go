// Package observability provides audit logging of rejected parameter specs.
package observability

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// AuditEventType identifies the kind of audit event.
type AuditEventType string

const (
	// SpecRejected is recorded whenever a parameter spec fails validation
	// before any manager is dispatched against it.
	SpecRejected AuditEventType = "spec_rejected"
)

// AuditSeverity represents the severity level of an audit event.
type AuditSeverity string

const (
	SeverityDebug    AuditSeverity = "debug"
	SeverityInfo     AuditSeverity = "info"
	SeverityWarning  AuditSeverity = "warning"
	SeverityError    AuditSeverity = "error"
	SeverityCritical AuditSeverity = "critical"
)

// AuditEvent represents a structured audit event.
type AuditEvent struct {
	EventType AuditEventType         `json:"event_type"`
	Severity  AuditSeverity          `json:"severity"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor,omitempty"`
	Resource  string                 `json:"resource,omitempty"`
	Action    string                 `json:"action,omitempty"`
	Result    string                 `json:"result,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	TraceID   string                 `json:"trace_id,omitempty"`
	SpanID    string                 `json:"span_id,omitempty"`
}

// NewAuditEvent creates a new audit event. No context is passed in, so the
// span lookup below sees context.TODO(), which carries no span: TraceID and
// SpanID are left empty.
func NewAuditEvent(eventType AuditEventType, severity AuditSeverity, message string) *AuditEvent {
	event := &AuditEvent{
		EventType: eventType,
		Severity:  severity,
		Message:   message,
		Timestamp: time.Now().UTC(),
		Metadata:  make(map[string]interface{}),
	}

	// Add trace context if available
	span := trace.SpanFromContext(context.TODO())
	if span.SpanContext().IsValid() {
		event.TraceID = span.SpanContext().TraceID().String()
		event.SpanID = span.SpanContext().SpanID().String()
	}

	return event
}

// AuditAdapter is the interface for audit log adapters.
type AuditAdapter interface {
	LogEvent(event *AuditEvent) error
}

// ConsoleAuditAdapter logs audit events to console.
type ConsoleAuditAdapter struct {
	UseColors bool
	mu        sync.Mutex
}

// NewConsoleAuditAdapter creates a new console adapter.
func NewConsoleAuditAdapter(useColors bool) *ConsoleAuditAdapter {
	return &ConsoleAuditAdapter{
		UseColors: useColors,
	}
}

// LogEvent logs an event to console.
func (a *ConsoleAuditAdapter) LogEvent(event *AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	// ANSI color codes
	colors := map[AuditSeverity]string{
		SeverityDebug:    "\033[36m", // Cyan
		SeverityInfo:     "\033[32m", // Green
		SeverityWarning:  "\033[33m", // Yellow
		SeverityError:    "\033[31m", // Red
		SeverityCritical: "\033[35m", // Magenta
	}
	reset := "\033[0m"

	color := ""
	if a.UseColors {
		color = colors[event.Severity]
	}

	// Build message
	parts := []string{
		event.Timestamp.Format(time.RFC3339),
		fmt.Sprintf("%s%s%s", color, string(event.Severity), reset),
		fmt.Sprintf("[%s]", event.EventType),
	}

	if event.Actor != "" {
		parts = append(parts, fmt.Sprintf("actor=%s", event.Actor))
	}
	if event.Resource != "" {
		parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
	}
	if event.Action != "" {
		parts = append(parts, fmt.Sprintf("action=%s", event.Action))
	}
	if event.Result != "" {
		parts = append(parts, fmt.Sprintf("result=%s", event.Result))
	}

	parts = append(parts, event.Message)

	if event.TraceID != "" {
		parts = append(parts, fmt.Sprintf("trace_id=%s", event.TraceID))
	}

	// Write to appropriate stream
	stream := os.Stdout
	if event.Severity == SeverityError || event.Severity == SeverityCritical {
		stream = os.Stderr
	}

	for i, part := range parts {
		if i > 0 {
			if _, err := fmt.Fprint(stream, " "); err != nil {
				return fmt.Errorf("failed to write separator: %w", err)
			}
		}
		if _, err := fmt.Fprint(stream, part); err != nil {
			return fmt.Errorf("failed to write part: %w", err)
		}
	}
	if _, err := fmt.Fprintln(stream); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

// StructuredAuditAdapter logs audit events as JSON.
type StructuredAuditAdapter struct {
	Writer io.Writer
	mu     sync.Mutex
}

// NewStructuredAuditAdapter creates a new structured adapter.
func NewStructuredAuditAdapter(writer io.Writer) *StructuredAuditAdapter {
	if writer == nil {
		writer = os.Stdout
	}
	return &StructuredAuditAdapter{
		Writer: writer,
	}
}

// LogEvent logs an event as JSON.
func (a *StructuredAuditAdapter) LogEvent(event *AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal audit event: %w", err)
	}

	_, err = fmt.Fprintln(a.Writer, string(data))
	return err
}

// FileAuditAdapter logs audit events to a file.
type FileAuditAdapter struct {
	FilePath   string
	Structured bool
	file       *os.File
	mu         sync.Mutex
}

// NewFileAuditAdapter creates a new file adapter.
func NewFileAuditAdapter(filePath string, structured bool) (*FileAuditAdapter, error) {
	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log file: %w", err)
	}

	return &FileAuditAdapter{
		FilePath:   filePath,
		Structured: structured,
		file:       file,
	}, nil
}

// LogEvent logs an event to file.
func (a *FileAuditAdapter) LogEvent(event *AuditEvent) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	var message string
	if a.Structured {
		data, err := json.Marshal(event)
		if err != nil {
			return fmt.Errorf("failed to marshal audit event: %w", err)
		}
		message = string(data)
	} else {
		parts := []string{
			event.Timestamp.Format(time.RFC3339),
			fmt.Sprintf("[%s]", event.EventType),
			fmt.Sprintf("severity=%s", event.Severity),
		}
		if event.Actor != "" {
			parts = append(parts, fmt.Sprintf("actor=%s", event.Actor))
		}
		if event.Resource != "" {
			parts = append(parts, fmt.Sprintf("resource=%s", event.Resource))
		}
		if event.Result != "" {
			parts = append(parts, fmt.Sprintf("result=%s", event.Result))
		}
		parts = append(parts, event.Message)

		message = ""
		for i, part := range parts {
			if i > 0 {
				message += " "
			}
			message += part
		}
	}

	_, err := fmt.Fprintln(a.file, message)
	return err
}

// Close closes the file adapter.
func (a *FileAuditAdapter) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.file.Close()
}

// AuditLogger is the main audit logger with pluggable adapters.
type AuditLogger struct {
	adapters []AuditAdapter
	mu       sync.RWMutex
}

// NewAuditLogger creates a new audit logger.
func NewAuditLogger(adapters ...AuditAdapter) *AuditLogger {
	if len(adapters) == 0 {
		adapters = []AuditAdapter{NewConsoleAuditAdapter(true)}
	}
	return &AuditLogger{
		adapters: adapters,
	}
}

// LogEvent logs an audit event to all adapters.
func (l *AuditLogger) LogEvent(event *AuditEvent) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	for _, adapter := range l.adapters {
		if err := adapter.LogEvent(event); err != nil {
			// Don't let adapter failures break the application
			fmt.Fprintf(os.Stderr, "Audit adapter error: %v\n", err)
		}
	}
}

// LogSpecRejected records a parameter spec that failed validation before
// dispatch, identifying it by source (typically a file path) together with
// the reason it was rejected and, if available, the underlying cause.
func (l *AuditLogger) LogSpecRejected(source, reason string, cause error) {
	message := fmt.Sprintf("spec rejected: %s", reason)
	if source != "" {
		message = fmt.Sprintf("spec rejected for %s: %s", source, reason)
	}

	event := NewAuditEvent(SpecRejected, SeverityWarning, message)
	event.Resource = source
	event.Action = "validate"
	event.Result = "rejected"
	event.Metadata["reason"] = reason
	if cause != nil {
		event.Metadata["cause"] = cause.Error()
	}

	l.LogEvent(event)
}
