package api

import (
	"context"
	"fmt"
	"maps"
	"net/url"
	"strconv"

	"github.com/jrsteele09/go-learn-client/client"
)

// Page is one page of a paginated listing.
type Page struct {
	Count    int              `json:"count"`
	Next     *string          `json:"next"`
	Previous *string          `json:"previous"`
	Results  []map[string]any `json:"results"`
}

// Learning covers the course, progress, note and exercise endpoints. Every call goes through the
// same pipeline as authentication, so failures are reported and a 401 ends the session.
type Learning struct {
	client *client.Client
}

func NewLearning(c *client.Client) *Learning {
	return &Learning{client: c}
}

func (l *Learning) Categories(ctx context.Context) ([]map[string]any, error) {
	return get[[]map[string]any](ctx, l.client, "/courses/categories/", nil)
}

func (l *Learning) Courses(ctx context.Context, params url.Values) (Page, error) {
	return get[Page](ctx, l.client, "/courses/courses/", params)
}

func (l *Learning) Course(ctx context.Context, slug string) (map[string]any, error) {
	return get[map[string]any](ctx, l.client, "/courses/courses/"+url.PathEscape(slug)+"/", nil)
}

func (l *Learning) LikeCourse(ctx context.Context, slug string) error {
	_, err := post[map[string]any](ctx, l.client, "/courses/courses/"+url.PathEscape(slug)+"/like/", nil)
	return err
}

func (l *Learning) Lessons(ctx context.Context, params url.Values) (Page, error) {
	return get[Page](ctx, l.client, "/courses/lessons/", params)
}

func (l *Learning) Lesson(ctx context.Context, slug string) (map[string]any, error) {
	return get[map[string]any](ctx, l.client, "/courses/lessons/"+url.PathEscape(slug)+"/", nil)
}

func (l *Learning) LikeLesson(ctx context.Context, slug string) error {
	_, err := post[map[string]any](ctx, l.client, "/courses/lessons/"+url.PathEscape(slug)+"/like/", nil)
	return err
}

func (l *Learning) Progress(ctx context.Context, params url.Values) (Page, error) {
	return get[Page](ctx, l.client, "/courses/progress/", params)
}

func (l *Learning) CreateProgress(ctx context.Context, data map[string]any) (map[string]any, error) {
	return post[map[string]any](ctx, l.client, "/courses/progress/", data)
}

func (l *Learning) UpdateProgress(ctx context.Context, id int, data map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := l.client.Patch(ctx, "/courses/progress/"+strconv.Itoa(id)+"/", data, &out); err != nil {
		return nil, fmt.Errorf("[api UpdateProgress] %w", err)
	}
	return out, nil
}

func (l *Learning) Statistics(ctx context.Context) (map[string]any, error) {
	return get[map[string]any](ctx, l.client, "/courses/progress/statistics/", nil)
}

func (l *Learning) Notes(ctx context.Context, params url.Values) (Page, error) {
	return get[Page](ctx, l.client, "/courses/notes/", params)
}

func (l *Learning) CreateNote(ctx context.Context, data map[string]any) (map[string]any, error) {
	return post[map[string]any](ctx, l.client, "/courses/notes/", data)
}

func (l *Learning) UpdateNote(ctx context.Context, id int, data map[string]any) (map[string]any, error) {
	var out map[string]any
	if err := l.client.Patch(ctx, "/courses/notes/"+strconv.Itoa(id)+"/", data, &out); err != nil {
		return nil, fmt.Errorf("[api UpdateNote] %w", err)
	}
	return out, nil
}

func (l *Learning) DeleteNote(ctx context.Context, id int) error {
	if err := l.client.Delete(ctx, "/courses/notes/"+strconv.Itoa(id)+"/", nil); err != nil {
		return fmt.Errorf("[api DeleteNote] %w", err)
	}
	return nil
}

func (l *Learning) LikeNote(ctx context.Context, id int) error {
	_, err := post[map[string]any](ctx, l.client, "/courses/notes/"+strconv.Itoa(id)+"/like/", nil)
	return err
}

func (l *Learning) Exercises(ctx context.Context, params url.Values) (Page, error) {
	return get[Page](ctx, l.client, "/exercises/exercises/", params)
}

func (l *Learning) Exercise(ctx context.Context, slug string) (map[string]any, error) {
	return get[map[string]any](ctx, l.client, "/exercises/exercises/"+url.PathEscape(slug)+"/", nil)
}

func (l *Learning) RunCode(ctx context.Context, data map[string]any) (map[string]any, error) {
	return post[map[string]any](ctx, l.client, "/exercises/exercises/run_code/", data)
}

// SubmitCode submits a solution for the exercise identified by slug. An "exercise" field in data is
// overwritten.
func (l *Learning) SubmitCode(ctx context.Context, slug string, data map[string]any) (map[string]any, error) {
	body := make(map[string]any, len(data)+1)
	maps.Copy(body, data)
	body["exercise"] = slug

	return post[map[string]any](ctx, l.client, "/exercises/submissions/", body)
}

func (l *Learning) Submissions(ctx context.Context, params url.Values) (Page, error) {
	return get[Page](ctx, l.client, "/exercises/submissions/", params)
}

func (l *Learning) SubmissionStatistics(ctx context.Context) (map[string]any, error) {
	return get[map[string]any](ctx, l.client, "/exercises/submissions/statistics/", nil)
}

func get[T any](ctx context.Context, c *client.Client, path string, params url.Values) (T, error) {
	var out T
	if err := c.Get(ctx, path, params, &out); err != nil {
		return out, fmt.Errorf("[api GET %s] %w", path, err)
	}
	return out, nil
}

func post[T any](ctx context.Context, c *client.Client, path string, body any) (T, error) {
	var out T
	if err := c.Post(ctx, path, body, &out); err != nil {
		return out, fmt.Errorf("[api POST %s] %w", path, err)
	}
	return out, nil
}
