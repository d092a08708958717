package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/taskboard-api/internal/domain"
	"github.com/phrazzld/taskboard-api/internal/platform/logger"
	"github.com/phrazzld/taskboard-api/internal/platform/metrics"
	"github.com/phrazzld/taskboard-api/internal/query"
	"github.com/phrazzld/taskboard-api/internal/service"
	"github.com/phrazzld/taskboard-api/internal/store/memory"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type envelope struct {
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type testServer struct {
	t       *testing.T
	handler http.Handler
	users   *memory.UserStore
	tasks   *memory.TaskStore
	metrics *metrics.Metrics
}

type serverOptions struct {
	defaultTaskLimit *int
	strict           bool
}

func newTestServer(t *testing.T, opts serverOptions) *testServer {
	t.Helper()
	log, _ := logger.NewTestLogger()
	users := memory.NewUserStore()
	tasks := memory.NewTaskStore()
	m := metrics.New(prometheus.NewRegistry())

	handler := NewRouter(RouterConfig{
		Tasks: NewTaskHandler(
			service.NewTaskService(tasks, users, log),
			opts.defaultTaskLimit,
			opts.strict,
			log,
		),
		Users:   NewUserHandler(service.NewUserService(users, tasks, log), opts.strict, log),
		Metrics: m,
		Logger:  log,
	})
	return &testServer{t: t, handler: handler, users: users, tasks: tasks, metrics: m}
}

// do sends a request and returns the recorder. body is JSON encoded unless
// it is already a string.
func (s *testServer) do(method, path string, body any) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(s.t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.handler.ServeHTTP(w, req)
	return w
}

// call sends a request and decodes the envelope, requiring status.
func (s *testServer) call(method, path string, body any, status int) envelope {
	s.t.Helper()
	w := s.do(method, path, body)
	require.Equal(s.t, status, w.Code, "body: %s", w.Body.String())
	var env envelope
	require.NoError(s.t, json.Unmarshal(w.Body.Bytes(), &env))
	assert.Equal(s.t, http.StatusText(status), env.Message)
	return env
}

// fail sends a request expected to fail and returns the error text.
func (s *testServer) fail(method, path string, body any, status int) string {
	s.t.Helper()
	env := s.call(method, path, body, status)
	var msg string
	require.NoError(s.t, json.Unmarshal(env.Data, &msg))
	return msg
}

func (s *testServer) createUser(name string, pending ...string) map[string]any {
	s.t.Helper()
	body := map[string]any{"name": name, "email": name + "@example.com"}
	if pending != nil {
		body["pendingTasks"] = pending
	}
	return decodeDoc(s.t, s.call(http.MethodPost, "/users", body, http.StatusCreated))
}

func (s *testServer) createTask(name string, assignee string, completed bool) map[string]any {
	s.t.Helper()
	body := map[string]any{"name": name, "deadline": "2025-01-01", "completed": completed}
	if assignee != "" {
		body["assignedUser"] = assignee
	}
	return decodeDoc(s.t, s.call(http.MethodPost, "/tasks", body, http.StatusCreated))
}

func (s *testServer) getDoc(path string) map[string]any {
	s.t.Helper()
	return decodeDoc(s.t, s.call(http.MethodGet, path, nil, http.StatusOK))
}

func decodeDoc(t *testing.T, env envelope) map[string]any {
	t.Helper()
	var doc map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &doc))
	return doc
}

func decodeDocs(t *testing.T, env envelope) []map[string]any {
	t.Helper()
	var docs []map[string]any
	require.NoError(t, json.Unmarshal(env.Data, &docs))
	return docs
}

func pendingOf(doc map[string]any) []string {
	raw, _ := doc["pendingTasks"].([]any)
	ids := make([]string, 0, len(raw))
	for _, v := range raw {
		ids = append(ids, v.(string))
	}
	return ids
}

func names(docs []map[string]any) []string {
	out := make([]string, 0, len(docs))
	for _, d := range docs {
		out = append(out, d["name"].(string))
	}
	return out
}

func listPath(base string, params map[string]string) string {
	values := url.Values{}
	for k, v := range params {
		values.Set(k, v)
	}
	return base + "?" + values.Encode()
}

func TestCreateTask(t *testing.T) {
	t.Run("requires name and deadline", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		msg := s.fail(http.MethodPost, "/tasks", map[string]any{"name": "x"}, http.StatusBadRequest)
		assert.Equal(t, "Name and deadline are required", msg)

		msg = s.fail(http.MethodPost, "/tasks", map[string]any{"deadline": "2025-01-01"}, http.StatusBadRequest)
		assert.Equal(t, "Name and deadline are required", msg)
	})

	t.Run("rejects dateCreated", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		msg := s.fail(http.MethodPost, "/tasks", map[string]any{
			"name":        "x",
			"deadline":    "2025-01-01",
			"dateCreated": "2024-01-01",
		}, http.StatusBadRequest)
		assert.Equal(t, "dateCreated cannot be provided and will be set automatically by the server", msg)
	})

	t.Run("rejects unparseable deadline", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		msg := s.fail(http.MethodPost, "/tasks", map[string]any{"name": "x", "deadline": "soon"}, http.StatusBadRequest)
		assert.Equal(t, `Invalid date format for deadline: "soon"`, msg)
	})

	t.Run("rejects malformed body", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		msg := s.fail(http.MethodPost, "/tasks", `{"name":`, http.StatusBadRequest)
		assert.Equal(t, "Invalid JSON body", msg)
	})

	t.Run("unassigned defaults", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		doc := s.createTask("write report", "", false)

		assert.Equal(t, "write report", doc["name"])
		assert.Equal(t, "", doc["description"])
		assert.Equal(t, "2025-01-01T00:00:00Z", doc["deadline"])
		assert.Equal(t, false, doc["completed"])
		assert.Equal(t, "", doc["assignedUser"])
		assert.Equal(t, domain.UnassignedUserName, doc["assignedUserName"])
		assert.NotEmpty(t, doc["dateCreated"])
		assert.True(t, domain.IsValidID(doc["_id"].(string)))
	})

	t.Run("epoch millisecond deadline and string completed", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		doc := decodeDoc(t, s.call(http.MethodPost, "/tasks", map[string]any{
			"name":      "x",
			"deadline":  1735689600000,
			"completed": "true",
		}, http.StatusCreated))

		assert.Equal(t, "2025-01-01T00:00:00Z", doc["deadline"])
		assert.Equal(t, true, doc["completed"])
	})

	t.Run("assignment appears in the user's pendingTasks", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		user := s.createUser("ada")
		userID := user["_id"].(string)

		task := s.createTask("x", userID, false)
		assert.Equal(t, userID, task["assignedUser"])
		assert.Equal(t, "ada", task["assignedUserName"])

		reloaded := s.getDoc("/users/" + userID)
		assert.Equal(t, []string{task["_id"].(string)}, pendingOf(reloaded))
	})

	t.Run("completed task is not pending", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		userID := s.createUser("ada")["_id"].(string)

		task := s.createTask("x", userID, true)
		assert.Equal(t, "ada", task["assignedUserName"])
		assert.Empty(t, pendingOf(s.getDoc("/users/"+userID)))
	})

	t.Run("unknown assignee", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		for _, assignee := range []string{"not-an-id", uuid.NewString()} {
			msg := s.fail(http.MethodPost, "/tasks", map[string]any{
				"name":         "x",
				"deadline":     "2025-01-01",
				"assignedUser": assignee,
			}, http.StatusBadRequest)
			assert.Equal(t, "Assigned user not found", msg)
		}

		count := s.call(http.MethodGet, "/tasks?count=true", nil, http.StatusOK)
		assert.JSONEq(t, "0", string(count.Data))
	})

	t.Run("strict decoding rejects unknown fields", func(t *testing.T) {
		s := newTestServer(t, serverOptions{strict: true})
		msg := s.fail(http.MethodPost, "/tasks", map[string]any{
			"name":     "x",
			"deadline": "2025-01-01",
			"priority": "high",
		}, http.StatusBadRequest)
		assert.Equal(t, "Invalid JSON body", msg)
	})
}

func TestGetTask(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	task := s.createTask("x", "", false)
	id := task["_id"].(string)

	assert.Equal(t, task, s.getDoc("/tasks/"+id))

	t.Run("select", func(t *testing.T) {
		doc := s.getDoc(listPath("/tasks/"+id, map[string]string{"select": `{"name":1}`}))
		assert.Equal(t, map[string]any{"_id": id, "name": "x"}, doc)
	})

	t.Run("invalid select", func(t *testing.T) {
		msg := s.fail(http.MethodGet, listPath("/tasks/"+id, map[string]string{"select": "{"}), nil, http.StatusBadRequest)
		assert.Equal(t, "Invalid select parameter", msg)
	})

	t.Run("malformed id", func(t *testing.T) {
		msg := s.fail(http.MethodGet, "/tasks/not-an-id", nil, http.StatusNotFound)
		assert.Equal(t, "Invalid ID format provided for Task", msg)
	})

	t.Run("missing task", func(t *testing.T) {
		msg := s.fail(http.MethodGet, "/tasks/"+uuid.NewString(), nil, http.StatusNotFound)
		assert.Equal(t, "Task not found", msg)
	})
}

func TestReplaceTask(t *testing.T) {
	replace := func(name, assignee string, extra map[string]any) map[string]any {
		body := map[string]any{"name": name, "deadline": "2025-02-01"}
		if assignee != "" {
			body["assignedUser"] = assignee
		}
		for k, v := range extra {
			body[k] = v
		}
		return body
	}

	t.Run("completing removes the task from pendingTasks", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		userID := s.createUser("ada")["_id"].(string)
		taskID := s.createTask("x", userID, false)["_id"].(string)

		doc := decodeDoc(t, s.call(http.MethodPut, "/tasks/"+taskID,
			replace("x", userID, map[string]any{"completed": true}), http.StatusOK))
		assert.Equal(t, true, doc["completed"])
		assert.Empty(t, pendingOf(s.getDoc("/users/"+userID)))

		// Reopening adds it back.
		s.call(http.MethodPut, "/tasks/"+taskID, replace("x", userID, map[string]any{"completed": "false"}), http.StatusOK)
		assert.Equal(t, []string{taskID}, pendingOf(s.getDoc("/users/"+userID)))
	})

	t.Run("reassignment moves the task between users", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		a := s.createUser("ada")["_id"].(string)
		b := s.createUser("bob")["_id"].(string)
		taskID := s.createTask("x", a, false)["_id"].(string)

		doc := decodeDoc(t, s.call(http.MethodPut, "/tasks/"+taskID, replace("x", b, nil), http.StatusOK))
		assert.Equal(t, b, doc["assignedUser"])
		assert.Equal(t, "bob", doc["assignedUserName"])
		assert.Empty(t, pendingOf(s.getDoc("/users/"+a)))
		assert.Equal(t, []string{taskID}, pendingOf(s.getDoc("/users/"+b)))
	})

	t.Run("omitting the assignee unassigns", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		userID := s.createUser("ada")["_id"].(string)
		taskID := s.createTask("x", userID, false)["_id"].(string)

		doc := decodeDoc(t, s.call(http.MethodPut, "/tasks/"+taskID,
			replace("renamed", "", map[string]any{"assignedUserName": "ada"}), http.StatusOK))
		assert.Equal(t, "renamed", doc["name"])
		assert.Equal(t, "", doc["assignedUser"])
		assert.Equal(t, domain.UnassignedUserName, doc["assignedUserName"])
		assert.Empty(t, pendingOf(s.getDoc("/users/"+userID)))
	})

	t.Run("assignee name must match", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		userID := s.createUser("ada")["_id"].(string)
		taskID := s.createTask("x", "", false)["_id"].(string)

		msg := s.fail(http.MethodPut, "/tasks/"+taskID,
			replace("x", userID, map[string]any{"assignedUserName": "bob"}), http.StatusBadRequest)
		assert.Equal(t, "Assigned user name does not match the provided user", msg)
		assert.Empty(t, pendingOf(s.getDoc("/users/"+userID)))
	})

	t.Run("request checks", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		taskID := s.createTask("x", "", false)["_id"].(string)

		msg := s.fail(http.MethodPut, "/tasks/"+taskID, map[string]any{"name": "x"}, http.StatusBadRequest)
		assert.Equal(t, "Name and deadline are required", msg)

		msg = s.fail(http.MethodPut, "/tasks/"+taskID,
			replace("x", "", map[string]any{"dateCreated": "2024-01-01"}), http.StatusBadRequest)
		assert.Equal(t, "dateCreated cannot be modified", msg)

		msg = s.fail(http.MethodPut, "/tasks/"+taskID,
			replace("x", "", map[string]any{"completed": "maybe"}), http.StatusBadRequest)
		assert.Equal(t, "Invalid value for completed: maybe", msg)

		msg = s.fail(http.MethodPut, "/tasks/bad", replace("x", "", nil), http.StatusNotFound)
		assert.Equal(t, "Invalid ID format provided for Task", msg)

		msg = s.fail(http.MethodPut, "/tasks/"+uuid.NewString(), replace("x", "", nil), http.StatusNotFound)
		assert.Equal(t, "Task not found", msg)
	})
}

func TestDeleteTask(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	userID := s.createUser("ada")["_id"].(string)
	keep := s.createTask("keep", userID, false)["_id"].(string)
	drop := s.createTask("drop", userID, false)["_id"].(string)

	w := s.do(http.MethodDelete, "/tasks/"+drop, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	assert.Equal(t, []string{keep}, pendingOf(s.getDoc("/users/"+userID)))
	assert.Equal(t, "Task not found", s.fail(http.MethodGet, "/tasks/"+drop, nil, http.StatusNotFound))
	assert.Equal(t, "Task not found", s.fail(http.MethodDelete, "/tasks/"+drop, nil, http.StatusNotFound))
	assert.Equal(t, "Invalid ID format provided for Task", s.fail(http.MethodDelete, "/tasks/nope", nil, http.StatusNotFound))
}

func TestListTasks(t *testing.T) {
	s := newTestServer(t, serverOptions{defaultTaskLimit: query.Limit(2)})
	userID := s.createUser("ada")["_id"].(string)
	s.createTask("c", userID, false)
	s.createTask("a", "", true)
	s.createTask("b", userID, true)

	list := func(params map[string]string) []map[string]any {
		return decodeDocs(t, s.call(http.MethodGet, listPath("/tasks", params), nil, http.StatusOK))
	}

	t.Run("default limit", func(t *testing.T) {
		assert.Len(t, list(nil), 2)
		assert.Len(t, list(map[string]string{"limit": "10"}), 3)
	})

	t.Run("invalid limit removes the cap", func(t *testing.T) {
		assert.Len(t, list(map[string]string{"limit": "lots"}), 3)
	})

	t.Run("zero limit", func(t *testing.T) {
		assert.Empty(t, list(map[string]string{"limit": "0"}))
	})

	t.Run("where, sort, skip", func(t *testing.T) {
		docs := list(map[string]string{"where": `{"completed":true}`, "sort": `{"name":-1}`})
		assert.Equal(t, []string{"b", "a"}, names(docs))

		docs = list(map[string]string{"sort": `{"name":1}`, "skip": "1", "limit": "5"})
		assert.Equal(t, []string{"b", "c"}, names(docs))

		docs = list(map[string]string{"sort": `{"name":1}`, "skip": "-3", "limit": "5"})
		assert.Equal(t, []string{"a", "b", "c"}, names(docs))

		docs = list(map[string]string{"where": `{"assignedUser":"` + userID + `"}`, "sort": `{"name":"asc"}`})
		assert.Equal(t, []string{"b", "c"}, names(docs))
	})

	t.Run("select", func(t *testing.T) {
		docs := list(map[string]string{"select": `{"_id":0,"name":1}`, "sort": `{"name":1}`, "limit": "1"})
		assert.Equal(t, []map[string]any{{"name": "a"}}, docs)
	})

	t.Run("count is taken over the page", func(t *testing.T) {
		env := s.call(http.MethodGet, listPath("/tasks", map[string]string{"count": "true", "limit": "10"}), nil, http.StatusOK)
		assert.JSONEq(t, "3", string(env.Data))

		env = s.call(http.MethodGet, listPath("/tasks", map[string]string{"count": "true", "skip": "2", "limit": "10"}), nil, http.StatusOK)
		assert.JSONEq(t, "1", string(env.Data))
	})

	t.Run("parameter errors", func(t *testing.T) {
		tests := []struct {
			params map[string]string
			want   string
		}{
			{map[string]string{"where": "{"}, "Invalid where parameter"},
			{map[string]string{"sort": "[1"}, "Invalid sort parameter"},
			{map[string]string{"select": "nope"}, "Invalid select parameter"},
			{map[string]string{"where": `{"_id":"abc"}`}, "Invalid ID format for _id: abc"},
		}
		for _, tc := range tests {
			assert.Equal(t, tc.want, s.fail(http.MethodGet, listPath("/tasks", tc.params), nil, http.StatusBadRequest))
		}
	})
}

func TestCreateUser(t *testing.T) {
	t.Run("requires name and email", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		msg := s.fail(http.MethodPost, "/users", map[string]any{"name": "ada"}, http.StatusBadRequest)
		assert.Equal(t, "Name and email are required", msg)
	})

	t.Run("rejects dateCreated", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		msg := s.fail(http.MethodPost, "/users", map[string]any{
			"name":        "ada",
			"email":       "ada@example.com",
			"dateCreated": nil,
		}, http.StatusBadRequest)
		assert.Equal(t, "dateCreated cannot be provided and will be set automatically by the server", msg)
	})

	t.Run("duplicate email", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		s.createUser("ada")
		msg := s.fail(http.MethodPost, "/users", map[string]any{"name": "other", "email": "ada@example.com"}, http.StatusBadRequest)
		assert.Equal(t, "User with this email already exists", msg)
	})

	t.Run("pendingTasks must reference tasks", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		missing := uuid.NewString()

		msg := s.fail(http.MethodPost, "/users", map[string]any{
			"name": "ada", "email": "ada@example.com", "pendingTasks": []string{missing},
		}, http.StatusBadRequest)
		assert.Equal(t, "Task in pendingTasks not found: "+missing, msg)

		msg = s.fail(http.MethodPost, "/users", map[string]any{
			"name": "ada", "email": "ada@example.com", "pendingTasks": []string{"bad"},
		}, http.StatusBadRequest)
		assert.Equal(t, "Invalid task ID in pendingTasks: bad", msg)

		msg = s.fail(http.MethodPost, "/users", map[string]any{
			"name": "ada", "email": "ada@example.com", "pendingTasks": "bad",
		}, http.StatusBadRequest)
		assert.Equal(t, "pendingTasks must be an array of task IDs", msg)
	})

	t.Run("lists a task once however its id is spelled", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		taskID := s.createTask("x", "", false)["_id"].(string)

		ada := s.createUser("ada", taskID, strings.ToUpper(taskID))
		assert.Equal(t, []string{taskID}, pendingOf(ada))
	})

	t.Run("claims listed tasks from their previous owner", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		ada := s.createUser("ada")["_id"].(string)
		taskID := s.createTask("x", ada, false)["_id"].(string)

		bob := s.createUser("bob", taskID)
		assert.Equal(t, []string{taskID}, pendingOf(bob))

		assert.Empty(t, pendingOf(s.getDoc("/users/"+ada)))
		task := s.getDoc("/tasks/" + taskID)
		assert.Equal(t, bob["_id"], task["assignedUser"])
		assert.Equal(t, "bob", task["assignedUserName"])
	})
}

func TestGetAndListUsers(t *testing.T) {
	s := newTestServer(t, serverOptions{defaultTaskLimit: query.Limit(1)})
	ada := s.createUser("ada")
	s.createUser("bob")
	s.createUser("cy")
	id := ada["_id"].(string)

	assert.Equal(t, ada, s.getDoc("/users/"+id))
	assert.Equal(t, map[string]any{"email": "ada@example.com"},
		s.getDoc(listPath("/users/"+id, map[string]string{"select": `{"_id":0,"email":1}`})))
	assert.Equal(t, "Invalid ID format provided for User", s.fail(http.MethodGet, "/users/xyz", nil, http.StatusNotFound))
	assert.Equal(t, "User not found", s.fail(http.MethodGet, "/users/"+uuid.NewString(), nil, http.StatusNotFound))

	// The task default limit does not apply to users.
	docs := decodeDocs(t, s.call(http.MethodGet, "/users", nil, http.StatusOK))
	assert.Len(t, docs, 3)

	docs = decodeDocs(t, s.call(http.MethodGet,
		listPath("/users", map[string]string{"where": `{"name":{"$in":["bob","cy"]}}`, "sort": `{"name":-1}`}),
		nil, http.StatusOK))
	assert.Equal(t, []string{"cy", "bob"}, names(docs))

	env := s.call(http.MethodGet, listPath("/users", map[string]string{"count": "true"}), nil, http.StatusOK)
	assert.JSONEq(t, "3", string(env.Data))
}

func TestReplaceUser(t *testing.T) {
	t.Run("pre-validates pendingTasks before any write", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		ada := s.createUser("ada")["_id"].(string)
		bob := s.createUser("bob")["_id"].(string)
		t1 := s.createTask("t1", ada, false)["_id"].(string)
		missing := uuid.NewString()

		msg := s.fail(http.MethodPut, "/users/"+bob, map[string]any{
			"name": "robert", "email": "bob@example.com", "pendingTasks": []string{t1, missing},
		}, http.StatusBadRequest)
		assert.Equal(t, "Task in pendingTasks not found: "+missing, msg)

		assert.Equal(t, "bob", s.getDoc("/users/"+bob)["name"])
		assert.Equal(t, []string{t1}, pendingOf(s.getDoc("/users/"+ada)))
		assert.Equal(t, ada, s.getDoc("/tasks/"+t1)["assignedUser"])
	})

	t.Run("moves, releases and renames", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		ada := s.createUser("ada")["_id"].(string)
		bob := s.createUser("bob")["_id"].(string)
		kept := s.createTask("kept", bob, false)["_id"].(string)
		released := s.createTask("released", bob, false)["_id"].(string)
		done := s.createTask("done", bob, true)["_id"].(string)
		stolen := s.createTask("stolen", ada, false)["_id"].(string)

		doc := decodeDoc(t, s.call(http.MethodPut, "/users/"+bob, map[string]any{
			"_id":          bob,
			"name":         "robert",
			"email":        "robert@example.com",
			"pendingTasks": []string{kept, stolen},
		}, http.StatusOK))
		assert.Equal(t, "robert", doc["name"])
		assert.Equal(t, []string{kept, stolen}, pendingOf(doc))

		assert.Empty(t, pendingOf(s.getDoc("/users/"+ada)))
		for _, id := range []string{kept, stolen, done} {
			task := s.getDoc("/tasks/" + id)
			assert.Equal(t, bob, task["assignedUser"], id)
			assert.Equal(t, "robert", task["assignedUserName"], id)
		}
		task := s.getDoc("/tasks/" + released)
		assert.Equal(t, "", task["assignedUser"])
		assert.Equal(t, domain.UnassignedUserName, task["assignedUserName"])
	})

	t.Run("omitted pendingTasks empties the list", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		ada := s.createUser("ada")["_id"].(string)
		taskID := s.createTask("x", ada, false)["_id"].(string)

		doc := decodeDoc(t, s.call(http.MethodPut, "/users/"+ada,
			map[string]any{"name": "ada", "email": "ada@example.com"}, http.StatusOK))
		assert.Empty(t, pendingOf(doc))
		assert.Equal(t, "", s.getDoc("/tasks/" + taskID)["assignedUser"])
	})

	t.Run("request checks", func(t *testing.T) {
		s := newTestServer(t, serverOptions{})
		ada := s.createUser("ada")["_id"].(string)
		s.createUser("bob")
		valid := map[string]any{"name": "ada", "email": "ada@example.com"}
		with := func(k string, v any) map[string]any {
			body := map[string]any{}
			for key, val := range valid {
				body[key] = val
			}
			body[k] = v
			return body
		}

		assert.Equal(t, "Name and email are required",
			s.fail(http.MethodPut, "/users/"+ada, map[string]any{"email": "ada@example.com"}, http.StatusBadRequest))
		assert.Equal(t, "_id cannot be modified",
			s.fail(http.MethodPut, "/users/"+ada, with("_id", uuid.NewString()), http.StatusBadRequest))
		assert.Equal(t, "dateCreated cannot be modified",
			s.fail(http.MethodPut, "/users/"+ada, with("dateCreated", "2024-01-01"), http.StatusBadRequest))
		assert.Equal(t, "User with this email already exists",
			s.fail(http.MethodPut, "/users/"+ada, with("email", "bob@example.com"), http.StatusBadRequest))
		assert.Equal(t, "Invalid ID format provided for User",
			s.fail(http.MethodPut, "/users/1", valid, http.StatusNotFound))
		assert.Equal(t, "User not found",
			s.fail(http.MethodPut, "/users/"+uuid.NewString(), valid, http.StatusNotFound))
	})
}

func TestDeleteUser(t *testing.T) {
	s := newTestServer(t, serverOptions{})
	ada := s.createUser("ada")["_id"].(string)
	t1 := s.createTask("t1", ada, false)["_id"].(string)
	t2 := s.createTask("t2", ada, true)["_id"].(string)

	w := s.do(http.MethodDelete, "/users/"+ada, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Empty(t, w.Body.String())

	for _, id := range []string{t1, t2} {
		task := s.getDoc("/tasks/" + id)
		assert.Equal(t, "", task["assignedUser"])
		assert.Equal(t, domain.UnassignedUserName, task["assignedUserName"])
	}
	assert.Equal(t, "User not found", s.fail(http.MethodDelete, "/users/"+ada, nil, http.StatusNotFound))
	assert.Equal(t, "Invalid ID format provided for User", s.fail(http.MethodDelete, "/users/x", nil, http.StatusNotFound))
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t, serverOptions{})

	w := s.do(http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
	assert.Len(t, w.Header().Get("X-Trace-ID"), 32)

	s.fail(http.MethodGet, "/tasks/"+uuid.NewString(), nil, http.StatusNotFound)

	w = s.do(http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, `taskapi_http_requests_total{method="GET",route="/health",status="200"} 1`)
	assert.Contains(t, body, `taskapi_http_requests_total{method="GET",route="/tasks/{id}",status="404"} 1`)
}
