package remote

import (
	"context"
	"fmt"

	"github.com/nhle/winterbreak/internal/model"
)

const tablePhotos = "user_photos"

// GetPhotos lists the student's photos, newest first.
func (c *Client) GetPhotos(ctx context.Context) ([]model.Photo, error) {
	var rows []model.Photo
	if err := c.selectRows(ctx, tablePhotos, c.ordered("created_at"), &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// AddPhoto uploads encoded photo data taken on date.
func (c *Client) AddPhoto(ctx context.Context, date, data string) (model.Photo, error) {
	row := map[string]string{"student_id": c.studentID, "photo_data": data, "date": date}

	var created []model.Photo
	if err := c.insert(ctx, tablePhotos, []map[string]string{row}, &created); err != nil {
		return model.Photo{}, fmt.Errorf("adding photo: %w", err)
	}
	return single(created, tablePhotos)
}

// DeletePhoto removes one of the student's photos.
func (c *Client) DeletePhoto(ctx context.Context, id string) error {
	if err := c.remove(ctx, tablePhotos, eq("id", id, "student_id", c.studentID)); err != nil {
		return fmt.Errorf("deleting photo %s: %w", id, err)
	}
	return nil
}
