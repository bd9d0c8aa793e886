package remote

import (
	"context"
	"fmt"

	"github.com/nhle/winterbreak/internal/model"
)

const tableStudents = "students"

// GetStudent returns the configured student's profile or ErrNotFound.
func (c *Client) GetStudent(ctx context.Context) (model.Student, error) {
	var rows []model.Student
	if err := c.selectRows(ctx, tableStudents, eq("id", c.studentID), &rows); err != nil {
		return model.Student{}, err
	}
	return single(rows, tableStudents)
}

// UpsertStudent creates or updates the profile row.
func (c *Client) UpsertStudent(ctx context.Context, name, avatar string) (model.Student, error) {
	row := model.Student{ID: c.studentID, Name: name, Avatar: avatar, UpdatedAt: c.now().UTC()}

	var rows []model.Student
	if err := c.upsert(ctx, tableStudents, "id", []model.Student{row}, &rows); err != nil {
		return model.Student{}, fmt.Errorf("saving student profile: %w", err)
	}
	return single(rows, tableStudents)
}
