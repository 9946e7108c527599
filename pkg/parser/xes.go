package parser

import (
	"context"
	"encoding/xml"
	"io"
	"strconv"

	"github.com/logflow/procmine/internal/model"
	"github.com/logflow/procmine/internal/pool"
)

// XES attribute keys.
const (
	xesConceptName = "concept:name"
	xesTimestamp   = "time:timestamp"
	xesResource    = "org:resource"
	xesLifecycle   = "lifecycle:transition"
)

// XESParser streams an XES document token by token. Only attributes that
// are direct children of <trace> and <event> are read; nested attribute
// lists are skipped.
type XESParser struct {
	cfg Config
}

// NewXESParser creates a new XES parser.
func NewXESParser(cfg Config) *XESParser {
	return &XESParser{cfg: cfg}
}

// xesScope is the element the decoder is currently inside.
type xesScope uint8

const (
	scopeOther xesScope = iota
	scopeLog
	scopeTrace
	scopeEvent
)

// Parse implements Parser.
func (p *XESParser) Parse(ctx context.Context, r io.Reader, out chan<- *model.Event) error {
	dec := xml.NewDecoder(r)
	dec.Strict = false

	var (
		stack   []xesScope
		caseID  string
		traceNo int
		pending []*model.Event // events seen before the trace's concept:name
		current *model.Event
		seenLog bool
	)

	top := func() xesScope {
		if len(stack) == 0 {
			return scopeOther
		}
		return stack[len(stack)-1]
	}

	for {
		if err := ctx.Err(); err != nil {
			return ErrContextCanceled
		}

		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ErrInvalidXES
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "log":
				seenLog = true
				stack = append(stack, scopeLog)
			case "trace":
				traceNo++
				caseID = strconv.Itoa(traceNo)
				pending = pending[:0]
				stack = append(stack, scopeTrace)
			case "event":
				current = events.Get()
				stack = append(stack, scopeEvent)
			default:
				key, value := xesAttr(t)
				switch top() {
				case scopeTrace:
					if key == xesConceptName {
						caseID = value
					}
				case scopeEvent:
					p.setEventAttr(current, key, value)
				}
				stack = append(stack, scopeOther)
			}

		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			switch t.Name.Local {
			case "event":
				if current == nil {
					continue
				}
				// Trace attributes may follow events; hold events until </trace>.
				pending = append(pending, current)
				current = nil
			case "trace":
				for _, e := range pending {
					e.CaseID = append(e.CaseID[:0], caseID...)
					if err := emit(ctx, out, e); err != nil {
						return err
					}
				}
				pending = pending[:0]
			}
		}
	}

	if !seenLog {
		return ErrInvalidXES
	}
	return nil
}

func xesAttr(t xml.StartElement) (key, value string) {
	for _, a := range t.Attr {
		switch a.Name.Local {
		case "key":
			key = a.Value
		case "value":
			value = a.Value
		}
	}
	return key, value
}

func (p *XESParser) setEventAttr(e *model.Event, key, value string) {
	if e == nil || key == "" {
		return
	}
	switch key {
	case xesConceptName:
		e.Activity = append(e.Activity[:0], value...)
	case xesLifecycle:
		e.Lifecycle = append(e.Lifecycle[:0], value...)
	case xesResource:
		e.Resource = append(e.Resource[:0], value...)
	case xesTimestamp:
		if ts, err := pool.ParseTimestamp([]byte(value), p.cfg.TimestampFormat); err == nil {
			e.Timestamp = ts
		}
	default:
		e.Attributes = append(e.Attributes, model.Attribute{
			Key:   []byte(key),
			Value: []byte(value),
		})
	}
}
