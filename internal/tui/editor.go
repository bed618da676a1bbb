package tui

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/ganot/taskboard/internal/syncview"
)

// editPrompt is an edit form requested by a gesture running off the UI
// goroutine. The gesture blocks until reply receives the outcome.
type editPrompt struct {
	req   syncview.EditRequest
	reply chan editReply
}

type editReply struct {
	values map[string]string
	err    error
}

// editPromptMsg carries an editPrompt into the update loop.
type editPromptMsg struct {
	prompt editPrompt
}

// formEditor implements syncview.Editor by handing each request to the
// bubbletea program, which shows it as a huh form.
type formEditor struct {
	prompts chan editPrompt
}

var _ syncview.Editor = (*formEditor)(nil)

func newFormEditor() *formEditor {
	return &formEditor{prompts: make(chan editPrompt)}
}

func (e *formEditor) Edit(ctx context.Context, req syncview.EditRequest) (map[string]string, error) {
	p := editPrompt{req: req, reply: make(chan editReply, 1)}
	select {
	case e.prompts <- p:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	select {
	case r := <-p.reply:
		return r.values, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// waitForPrompt delivers the next edit request to the program.
func (e *formEditor) waitForPrompt() tea.Cmd {
	return func() tea.Msg {
		return editPromptMsg{prompt: <-e.prompts}
	}
}

// editForm is an open huh form and the values it is bound to.
type editForm struct {
	form   *huh.Form
	prompt editPrompt
	values map[string]*string
}

func newEditForm(p editPrompt) *editForm {
	ef := &editForm{prompt: p, values: make(map[string]*string, len(p.req.Fields))}

	fields := make([]huh.Field, 0, len(p.req.Fields))
	for _, f := range p.req.Fields {
		value := f.Value
		ef.values[f.Name] = &value

		if len(f.Options) > 0 {
			fields = append(fields, huh.NewSelect[string]().
				Title(f.Label).
				Options(huh.NewOptions(f.Options...)...).
				Value(&value))
			continue
		}
		input := huh.NewInput().
			Title(f.Label).
			Value(&value)
		if f.Required {
			label := f.Label
			input = input.Validate(func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("%s is required", strings.ToLower(label))
				}
				return nil
			})
		}
		fields = append(fields, input)
	}

	ef.form = huh.NewForm(huh.NewGroup(fields...).Title(p.req.Title)).
		WithShowHelp(true).
		WithTheme(huh.ThemeCharm())
	return ef
}

// finish answers the waiting gesture.
func (ef *editForm) finish(cancelled bool) {
	if cancelled {
		ef.prompt.reply <- editReply{err: syncview.ErrCancelled}
		return
	}
	out := make(map[string]string, len(ef.values))
	for name, v := range ef.values {
		out[name] = *v
	}
	ef.prompt.reply <- editReply{values: out}
}
