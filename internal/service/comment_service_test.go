package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
)

func TestCommentService(t *testing.T) {
	a := newAcme(t)
	task := a.CreateTask("Fix roof", a.bob, a.bob, nil)
	svc := a.CommentService()

	t.Run("participants comment", func(t *testing.T) {
		c, err := svc.Create(a.Context(a.bob), task.ID.String(), CommentRequest{Content: "  started  "})
		require.NoError(t, err)
		assert.Equal(t, "started", c.Content)
		assert.Equal(t, "Bob Builder", c.AuthorName)
		assert.Equal(t, a.company.ID, c.CompanyID)
	})

	t.Run("admins comment on any task", func(t *testing.T) {
		_, err := svc.Create(a.Context(a.admin), task.ID.String(), CommentRequest{Content: "thanks"})
		require.NoError(t, err)

		comments, err := svc.List(a.Context(a.admin), task.ID.String())
		require.NoError(t, err)
		require.Len(t, comments, 2)
		assert.Equal(t, "started", comments[0].Content)
		assert.Equal(t, "Alice Admin", comments[1].AuthorName)
	})

	t.Run("non participants see no task", func(t *testing.T) {
		_, err := svc.List(a.Context(a.carol), task.ID.String())
		assertCode(t, err, codes.NotFound, "Task not found")

		_, err = svc.Create(a.Context(a.carol), task.ID.String(), CommentRequest{Content: "hi"})
		assertCode(t, err, codes.NotFound, "Task not found")
	})

	t.Run("content is required", func(t *testing.T) {
		_, err := svc.Create(a.Context(a.bob), task.ID.String(), CommentRequest{Content: " "})
		assertCode(t, err, codes.InvalidArgument, "Comment content is required")

		_, err = svc.Create(a.Context(a.bob), task.ID.String(), CommentRequest{Content: strings.Repeat("x", 5001)})
		assertCode(t, err, codes.InvalidArgument, "content too long (max 5000 characters)")
	})
}

func TestCommentService_UpdateAndDelete(t *testing.T) {
	a := newAcme(t)
	task := a.CreateTask("Fix roof", a.bob, a.carol, nil)
	svc := a.CommentService()

	c, err := svc.Create(a.Context(a.bob), task.ID.String(), CommentRequest{Content: "draft"})
	require.NoError(t, err)

	_, err = svc.Update(a.Context(a.carol), c.ID.String(), CommentRequest{Content: "mine now"})
	assertCode(t, err, codes.PermissionDenied, "")

	updated, err := svc.Update(a.Context(a.bob), c.ID.String(), CommentRequest{Content: "final"})
	require.NoError(t, err)
	assert.Equal(t, "final", updated.Content)
	assert.Equal(t, "Bob Builder", updated.AuthorName)

	updated, err = svc.Update(a.Context(a.admin), c.ID.String(), CommentRequest{Content: "moderated"})
	require.NoError(t, err)
	assert.Equal(t, "moderated", updated.Content)

	_, err = svc.Delete(a.Context(a.carol), c.ID.String())
	assertCode(t, err, codes.PermissionDenied, "")

	resp, err := svc.Delete(a.Context(a.admin), c.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Comment deleted successfully", resp.Message)

	_, err = svc.Delete(a.Context(a.admin), c.ID.String())
	assertCode(t, err, codes.NotFound, "Comment not found")
}
