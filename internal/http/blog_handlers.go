package http

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"blogboard/internal/domain"
)

type blogForm struct {
	Title       string `form:"title" binding:"required"`
	Description string `form:"description"`
}

type commentForm struct {
	Text string `form:"text" binding:"required"`
}

type replyForm struct {
	Reply string `form:"reply" binding:"required"`
}

func (h *Handler) dashboard(c *gin.Context) {
	ctx := c.Request.Context()
	user := currentUser(c)

	blogs, err := h.blogs.ListByOwner(ctx, user.Email)
	if err != nil {
		h.fail(c, err, "list blogs")
		return
	}
	views := make([]blogView, len(blogs))
	for i := range blogs {
		views[i] = h.blogView(ctx, &blogs[i])
	}

	c.HTML(http.StatusOK, "dashboard.tmpl", gin.H{
		"User":  h.userView(ctx, user),
		"Blogs": views,
	})
}

func (h *Handler) allBlogs(c *gin.Context) {
	ctx := c.Request.Context()
	blogs, err := h.blogs.List(ctx)
	if err != nil {
		h.fail(c, err, "list blogs")
		return
	}
	views := make([]blogView, len(blogs))
	for i := range blogs {
		views[i] = h.blogView(ctx, &blogs[i])
	}
	c.HTML(http.StatusOK, "blogs.tmpl", gin.H{
		"User":  h.userView(ctx, currentUser(c)),
		"Blogs": views,
	})
}

func (h *Handler) createBlog(c *gin.Context) {
	var form blogForm
	if err := c.ShouldBind(&form); err != nil || strings.TrimSpace(form.Title) == "" {
		c.String(http.StatusBadRequest, "Title is required")
		return
	}

	ctx := c.Request.Context()
	var ref string
	fh, err := c.FormFile("image")
	switch {
	case err == nil:
		if ref, err = h.uploads.Store(ctx, fh); err != nil {
			h.fail(c, err, "store blog image")
			return
		}
	case !errors.Is(err, http.ErrMissingFile):
		c.String(http.StatusBadRequest, "Invalid image upload")
		return
	}

	if _, err := h.blogs.Create(ctx, form.Title, form.Description, ref, currentUser(c).Email); err != nil {
		if delErr := h.uploads.Delete(ctx, ref); delErr != nil {
			h.logger.WithField("ref", ref).Warnf("discard blog image: %v", delErr)
		}
		h.respond(c, err, "create blog")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

// ownedBlog loads the blog named by the :id param and checks the session user may change it.
func (h *Handler) ownedBlog(c *gin.Context) (*domain.Blog, bool) {
	blog, err := h.blogs.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respond(c, err, "load blog")
		return nil, false
	}
	if err := h.blogs.Authorize(blog, currentUser(c).Email); err != nil {
		h.respond(c, err, "authorize blog")
		return nil, false
	}
	return blog, true
}

func (h *Handler) editBlog(c *gin.Context) {
	blog, ok := h.ownedBlog(c)
	if !ok {
		return
	}
	c.HTML(http.StatusOK, "edit.tmpl", gin.H{"Blog": h.blogView(c.Request.Context(), blog)})
}

func (h *Handler) updateBlog(c *gin.Context) {
	var form blogForm
	if err := c.ShouldBind(&form); err != nil || strings.TrimSpace(form.Title) == "" {
		c.String(http.StatusBadRequest, "Title is required")
		return
	}
	blog, ok := h.ownedBlog(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	fh, err := c.FormFile("image")
	switch {
	case errors.Is(err, http.ErrMissingFile):
		_, err = h.blogs.Update(ctx, blog.ID, form.Title, form.Description, nil)
	case err != nil:
		c.String(http.StatusBadRequest, "Invalid image upload")
		return
	default:
		_, err = h.uploads.Replace(ctx, blog.Image, fh, func(ref string) error {
			_, err := h.blogs.Update(ctx, blog.ID, form.Title, form.Description, &ref)
			return err
		})
	}
	if err != nil {
		h.respond(c, err, "update blog")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) deleteBlog(c *gin.Context) {
	blog, ok := h.ownedBlog(c)
	if !ok {
		return
	}

	ctx := c.Request.Context()
	if err := h.uploads.Delete(ctx, blog.Image); err != nil {
		h.fail(c, err, "delete blog image")
		return
	}
	if err := h.blogs.Delete(ctx, blog.ID); err != nil {
		h.respond(c, err, "delete blog")
		return
	}
	c.Redirect(http.StatusFound, "/dashboard")
}

func (h *Handler) viewBlog(c *gin.Context) {
	ctx := c.Request.Context()
	blog, err := h.blogs.Get(ctx, c.Param("id"))
	if err != nil {
		h.respond(c, err, "load blog")
		return
	}
	c.HTML(http.StatusOK, "view.tmpl", gin.H{
		"User": h.userView(ctx, currentUser(c)),
		"Blog": h.blogView(ctx, blog),
	})
}

func (h *Handler) addComment(c *gin.Context) {
	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Comment text is required")
		return
	}

	id := c.Param("id")
	if _, err := h.blogs.AppendComment(c.Request.Context(), id, form.Text); err != nil {
		h.respond(c, err, "add comment")
		return
	}
	c.Redirect(http.StatusFound, "/blog/view/"+id)
}

// addReply addresses the comment by position when the segment is numeric, by comment ID otherwise.
func (h *Handler) addReply(c *gin.Context) {
	var form replyForm
	if err := c.ShouldBind(&form); err != nil {
		c.String(http.StatusBadRequest, "Reply text is required")
		return
	}

	ctx := c.Request.Context()
	id := c.Param("id")
	target := c.Param("comment")

	var err error
	if index, convErr := strconv.Atoi(target); convErr == nil {
		_, err = h.blogs.AppendReply(ctx, id, index, form.Reply)
	} else {
		_, err = h.blogs.AppendReplyToComment(ctx, id, target, form.Reply)
	}
	if err != nil {
		h.respond(c, err, "add reply")
		return
	}
	c.Redirect(http.StatusFound, "/blog/view/"+id)
}
