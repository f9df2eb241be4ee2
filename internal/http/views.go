package http

import (
	"context"
	"embed"
	"html/template"

	"blogboard/internal/domain"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.tmpl"))

type userView struct {
	Email           string
	ProfileImageURL string
}

type commentView struct {
	Index   int
	ID      string
	Text    string
	Replies []string
}

type blogView struct {
	ID          string
	Title       string
	Description string
	ImageURL    string
	CreatedBy   string
	Comments    []commentView
}

func (h *Handler) userView(ctx context.Context, user *domain.User) userView {
	return userView{
		Email:           user.Email,
		ProfileImageURL: h.imageURL(ctx, user.ProfileImage),
	}
}

func (h *Handler) blogView(ctx context.Context, blog *domain.Blog) blogView {
	view := blogView{
		ID:          blog.ID,
		Title:       blog.Title,
		Description: blog.Description,
		ImageURL:    h.imageURL(ctx, blog.Image),
		CreatedBy:   blog.CreatedBy,
		Comments:    make([]commentView, len(blog.Comments)),
	}
	for i, c := range blog.Comments {
		view.Comments[i] = commentView{
			Index:   i,
			ID:      c.ID,
			Text:    c.Text,
			Replies: c.Replies,
		}
	}
	return view
}

// imageURL resolves a reference for display. Resolution failures render as a missing image.
func (h *Handler) imageURL(ctx context.Context, ref string) string {
	url, err := h.uploads.URL(ctx, ref)
	if err != nil {
		h.logger.WithField("ref", ref).Warnf("resolve upload url: %v", err)
		return ""
	}
	return url
}
