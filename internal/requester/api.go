package requester

import (
	"context"
	"fmt"
	"strconv"

	"github.com/brizzai/todoctl/internal/auth/constants"
	"github.com/brizzai/todoctl/internal/logger"
	"go.uber.org/zap"
)

// Register creates an account and returns the identity the server assigned
func (r *HTTPRequester) Register(ctx context.Context, reg Registration) (*Profile, error) {
	resp, err := r.Do(ctx, Request{
		Method: MethodPost,
		Path:   constants.RegisterPath,
		Body:   reg,
	})
	if err != nil {
		return nil, err
	}

	// the account exists once the server accepted it; an unreadable body
	// falls back to the submitted identity
	submitted := Profile{Email: reg.Email, FirstName: reg.FirstName, LastName: reg.LastName}
	profile := submitted
	if len(resp.Body) > 0 {
		if err := resp.Decode(&profile); err != nil {
			logger.Debug("Unreadable registration response, using submitted identity", zap.Error(err))
			profile = submitted
		}
	}
	if profile.Email == "" {
		profile.Email = reg.Email
	}
	return &profile, nil
}

// Login obtains a token pair
func (r *HTTPRequester) Login(ctx context.Context, email, password string) (*TokenPair, error) {
	resp, err := r.Do(ctx, Request{
		Method: MethodPost,
		Path:   constants.LoginPath,
		Body:   map[string]string{"email": email, "password": password},
	})
	if err != nil {
		return nil, err
	}

	var pair TokenPair
	if err := resp.Decode(&pair); err != nil {
		return nil, err
	}
	if pair.Access == "" {
		return nil, fmt.Errorf("login response has no access token")
	}
	return &pair, nil
}

// ListTodos returns every todo of the authenticated user
func (r *HTTPRequester) ListTodos(ctx context.Context) ([]Todo, error) {
	resp, err := r.Do(ctx, Request{
		Method:              MethodGet,
		Path:                constants.TodosPath,
		RetryOnUnauthorized: true,
	})
	if err != nil {
		return nil, err
	}

	var todos []Todo
	if err := resp.Decode(&todos); err != nil {
		return nil, err
	}
	return todos, nil
}

// SaveTodo creates the todo when it has no ID and updates it otherwise
func (r *HTTPRequester) SaveTodo(ctx context.Context, todo Todo) error {
	req := Request{
		Method:              MethodPost,
		Path:                constants.TodosPath,
		Body:                todo,
		RetryOnUnauthorized: true,
	}
	if todo.ID != nil {
		req.Method = MethodPut
		req.Path = todoPath(*todo.ID)
	}

	_, err := r.Do(ctx, req)
	return err
}

// DeleteTodo deletes the todo; a todo without ID is ignored
func (r *HTTPRequester) DeleteTodo(ctx context.Context, todo Todo) error {
	if todo.ID == nil {
		return nil
	}

	_, err := r.Do(ctx, Request{
		Method:              MethodDelete,
		Path:                todoPath(*todo.ID),
		RetryOnUnauthorized: true,
	})
	return err
}

func todoPath(id int64) string {
	return constants.TodosPath + strconv.FormatInt(id, 10)
}
