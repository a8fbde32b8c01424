package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/vanderheijden86/famtree/internal/datasource"
	"github.com/vanderheijden86/famtree/pkg/config"
	"github.com/vanderheijden86/famtree/pkg/model"
	"github.com/vanderheijden86/famtree/pkg/store"
)

// memberDraft is the editable text form of a member.
type memberDraft struct {
	Name          string
	MiddleName    string
	LastName      string
	Relation      string
	BirthDate     string
	DeathDate     string
	Spouse        string
	ContactNumber string
	Email         string
	Address       string
	ProfilePic    string
}

func draftFrom(m model.Member) memberDraft {
	d := memberDraft{
		Name:          m.Name,
		MiddleName:    m.MiddleName,
		LastName:      m.LastName,
		Relation:      string(m.Relation),
		Spouse:        m.Spouse,
		ContactNumber: m.ContactNumber,
		Email:         m.Email,
		Address:       m.Address,
		ProfilePic:    m.ProfilePic,
	}
	if !m.BirthDate.IsZero() {
		d.BirthDate = m.BirthDate.String()
	}
	if m.DeathDate != nil && !m.DeathDate.IsZero() {
		d.DeathDate = m.DeathDate.String()
	}
	return d
}

// apply copies the draft onto base, keeping fields the form does not show.
func (d memberDraft) apply(base model.Member) model.Member {
	m := base.Clone()
	m.Name = strings.TrimSpace(d.Name)
	m.MiddleName = strings.TrimSpace(d.MiddleName)
	m.LastName = strings.TrimSpace(d.LastName)
	m.Relation = model.Relation(d.Relation)
	m.Spouse = strings.TrimSpace(d.Spouse)
	m.ContactNumber = strings.TrimSpace(d.ContactNumber)
	m.Email = strings.TrimSpace(d.Email)
	m.Address = strings.TrimSpace(d.Address)
	m.ProfilePic = strings.TrimSpace(d.ProfilePic)
	m.BirthDate = model.ParseDate(d.BirthDate)
	m.DeathDate = nil
	if dd := model.ParseDate(d.DeathDate); !dd.IsZero() {
		m.DeathDate = &dd
	}
	return m
}

func requiredText(label string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", label)
		}
		return nil
	}
}

func optionalDate(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if _, err := time.Parse(model.DateLayout, s); err != nil {
		return errors.New("use YYYY-MM-DD")
	}
	return nil
}

// isTerminal checks if stdin is connected to a terminal
func isTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// newForm falls back to accessible prompts when stdin is not a terminal.
func newForm(groups ...*huh.Group) *huh.Form {
	form := huh.NewForm(groups...).WithTheme(huh.ThemeDracula())
	if !isTerminal() {
		form = form.WithAccessible(true)
	}
	return form
}

func memberForm(d *memberDraft, title, description string) *huh.Form {
	return newForm(
		huh.NewGroup(
			huh.NewNote().Title(title).Description(description),
			huh.NewInput().Title("First name").Value(&d.Name).Validate(requiredText("first name")),
			huh.NewInput().Title("Middle name").Value(&d.MiddleName),
			huh.NewInput().Title("Last name").Value(&d.LastName).Validate(requiredText("last name")),
			huh.NewSelect[string]().
				Title("Relation to parent").
				Options(
					huh.NewOption("Son", string(model.RelationSon)),
					huh.NewOption("Daughter", string(model.RelationDaughter)),
					huh.NewOption("Unspecified", ""),
				).
				Value(&d.Relation),
		),
		huh.NewGroup(
			huh.NewInput().Title("Birth date").Placeholder("YYYY-MM-DD").Value(&d.BirthDate).Validate(optionalDate),
			huh.NewInput().Title("Death date").Placeholder("leave empty if living").Value(&d.DeathDate).Validate(optionalDate),
			huh.NewInput().Title("Spouse").Value(&d.Spouse),
		),
		huh.NewGroup(
			huh.NewInput().Title("Contact number").Value(&d.ContactNumber),
			huh.NewInput().Title("Email").Value(&d.Email),
			huh.NewInput().Title("Address").Value(&d.Address),
			huh.NewInput().Title("Photo URL").Value(&d.ProfilePic),
		),
	)
}

func runForm(ctx context.Context, w io.Writer, cfg config.Config, opts options, src datasource.DataSource) error {
	st, err := src.Open(cfg.Data.DocPath)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src.Path, err)
	}
	defer st.Close()

	var (
		base        model.Member
		title       string
		description string
	)
	if opts.edit != "" {
		base, err = st.Get(ctx, resolveRef(cfg, opts.edit))
		if err != nil {
			return err
		}
		title = "Edit " + base.FullName()
		description = "id " + base.ID
	} else {
		title = "Add member"
		description = "a new family root"
		if opts.parent != "" {
			p, err := st.Get(ctx, resolveRef(cfg, opts.parent))
			if err != nil {
				return fmt.Errorf("parent: %w", err)
			}
			description = "child of " + p.FullName()
		}
	}

	draft := draftFrom(base)
	if err := memberForm(&draft, title, description).RunWithContext(ctx); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			fmt.Fprintln(w, "cancelled")
			return nil
		}
		return err
	}

	m := draft.apply(base)
	var saved model.Member
	if opts.edit != "" {
		saved, err = store.Update(ctx, st, m)
	} else {
		saved, err = store.Add(ctx, st, m, resolveRef(cfg, opts.parent))
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "saved %s (%s) to %s\n", saved.FullName(), saved.ID, src.Path)
	return nil
}
