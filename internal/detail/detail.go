// Package detail loads a single recycler and builds its contact links.
package detail

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/mohammed-shakir/recycler-discovery/internal/core/model"
)

const (
	WhatsAppText = "I am interested in helping with waste collection"
	MailSubject  = "Interest in waste collection"
)

type Source interface {
	Recycler(ctx context.Context, id int) (model.RecyclerDetail, error)
}

type Contacts struct {
	WhatsApp string `json:"whatsapp,omitempty"`
	Mail     string `json:"mail,omitempty"`
}

type Page struct {
	ID       int                  `json:"id"`
	Name     string               `json:"name"`
	Items    string               `json:"items"`
	Detail   model.RecyclerDetail `json:"detail"`
	Contacts Contacts             `json:"contacts"`
}

func Load(ctx context.Context, src Source, id int) (Page, error) {
	d, err := src.Recycler(ctx, id)
	if err != nil {
		return Page{}, fmt.Errorf("load recycler %d: %w", id, err)
	}
	return Page{
		ID:       id,
		Name:     d.Recycler.Name,
		Items:    Items(d),
		Detail:   d,
		Contacts: ContactsFor(d),
	}, nil
}

// Items joins the accepted type titles for display.
func Items(d model.RecyclerDetail) string {
	titles := make([]string, 0, len(d.Types))
	for _, t := range d.Types {
		titles = append(titles, t.Title)
	}
	return strings.Join(titles, ", ")
}

func ContactsFor(d model.RecyclerDetail) Contacts {
	var c Contacts
	if p := strings.TrimSpace(d.Recycler.Phone); p != "" {
		q := url.Values{}
		q.Set("phone", p)
		q.Set("text", WhatsAppText)
		c.WhatsApp = "whatsapp://send?" + q.Encode()
	}
	if e := strings.TrimSpace(d.Recycler.Email); e != "" {
		q := url.Values{}
		q.Set("subject", MailSubject)
		c.Mail = (&url.URL{Scheme: "mailto", Opaque: e, RawQuery: strings.ReplaceAll(q.Encode(), "+", "%20")}).String()
	}
	return c
}
