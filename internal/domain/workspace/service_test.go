package workspace_test

import (
	"context"
	"testing"

	"github.com/ganot/taskboard/internal/docstore"
	"github.com/ganot/taskboard/internal/domain/activity"
	"github.com/ganot/taskboard/internal/domain/project"
	"github.com/ganot/taskboard/internal/domain/task"
	"github.com/ganot/taskboard/internal/domain/workspace"
	"github.com/ganot/taskboard/internal/repository/mocks"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func projectDoc(id, owner, name string) *docstore.Document {
	return &docstore.Document{ID: id, Collection: project.Collection, Fields: project.NewFields(name, owner)}
}

func taskDoc(id, projectID, name string) *docstore.Document {
	return &docstore.Document{ID: id, Collection: task.Collection, Fields: task.NewFields(name, projectID)}
}

func newService(docs *mocks.DocumentStore, logs *mocks.ActivityRepository) *workspace.Service {
	return workspace.NewService(docs, activity.NewService(logs, nil), nil)
}

func TestWorkspace_CreateProjectFillsOwner(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	logs := &mocks.ActivityRepository{}

	docs.On("Create", ctx, project.Collection, project.NewFields("Alpha", "u1")).
		Return(projectDoc("p1", "u1", "Alpha"), nil)
	logs.On("Log", ctx, "u1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeDocumentCreated && e.DocumentID == "p1" && e.ProjectID == "p1"
	})).Return(nil)

	svc := newService(docs, logs)
	doc, err := svc.Create(ctx, "u1", project.Collection, docstore.Fields{project.FieldName: "Alpha"})
	require.NoError(t, err)
	require.Equal(t, "p1", doc.ID)
	docs.AssertExpectations(t)
	logs.AssertExpectations(t)
}

func TestWorkspace_CreateProjectForeignOwner(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	svc := newService(docs, &mocks.ActivityRepository{})

	_, err := svc.Create(ctx, "u1", project.Collection, project.NewFields("Alpha", "u2"))
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)
	docs.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestWorkspace_CreateRejectsInvalidFields(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	svc := newService(docs, &mocks.ActivityRepository{})

	_, err := svc.Create(ctx, "u1", project.Collection, docstore.Fields{project.FieldName: "   "})
	require.ErrorIs(t, err, workspace.ErrInvalidFields)

	_, err = svc.Create(ctx, "u1", project.Collection, docstore.Fields{project.FieldName: "A", "color": "red"})
	require.ErrorIs(t, err, workspace.ErrInvalidFields)

	_, err = svc.Create(ctx, "u1", "widgets", docstore.Fields{"name": "A"})
	require.ErrorIs(t, err, workspace.ErrUnknownCollection)
}

func TestWorkspace_CreateTaskRequiresOwnedProject(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	logs := &mocks.ActivityRepository{}

	docs.On("Get", ctx, project.Collection, "mine").Return(projectDoc("mine", "u1", "Alpha"), nil)
	docs.On("Get", ctx, project.Collection, "theirs").Return(projectDoc("theirs", "u2", "Beta"), nil)
	docs.On("Get", ctx, project.Collection, "gone").Return(nil, docstore.ErrNotFound)
	docs.On("Create", ctx, task.Collection, task.NewFields("Design", "mine")).
		Return(taskDoc("t1", "mine", "Design"), nil)
	logs.On("Log", ctx, "u1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ProjectID == "mine" && e.DocumentID == "t1"
	})).Return(nil)

	svc := newService(docs, logs)

	doc, err := svc.Create(ctx, "u1", task.Collection, docstore.Fields{
		task.FieldName:      "Design",
		task.FieldProjectID: "mine",
	})
	require.NoError(t, err)
	require.Equal(t, "t1", doc.ID)

	_, err = svc.Create(ctx, "u1", task.Collection, task.NewFields("Design", "theirs"))
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)

	_, err = svc.Create(ctx, "u1", task.Collection, task.NewFields("Design", "gone"))
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)

	_, err = svc.Create(ctx, "u1", task.Collection, docstore.Fields{task.FieldName: "Design"})
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)
}

func TestWorkspace_CreateTaskRejectsUnknownStatus(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	docs.On("Get", ctx, project.Collection, "p1").Return(projectDoc("p1", "u1", "Alpha"), nil)
	svc := newService(docs, &mocks.ActivityRepository{})

	fields := task.NewFields("Design", "p1")
	fields[task.FieldStatus] = "Blocked"
	_, err := svc.Create(ctx, "u1", task.Collection, fields)
	require.ErrorIs(t, err, workspace.ErrInvalidFields)
}

func TestWorkspace_UpdateTask(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	logs := &mocks.ActivityRepository{}

	docs.On("Get", ctx, task.Collection, "t1").Return(taskDoc("t1", "p1", "Design"), nil)
	docs.On("Get", ctx, project.Collection, "p1").Return(projectDoc("p1", "u1", "Alpha"), nil)
	patch := docstore.Fields{task.FieldStatus: "Completed"}
	docs.On("Update", ctx, task.Collection, "t1", patch).Return(taskDoc("t1", "p1", "Design"), nil)
	logs.On("Log", ctx, "u1", mock.MatchedBy(func(e *activity.ActivityEntry) bool {
		return e.ActivityType == activity.TypeDocumentUpdated && e.Details == `{"status":"Completed"}`
	})).Return(nil)

	svc := newService(docs, logs)
	_, err := svc.Update(ctx, "u1", task.Collection, "t1", patch)
	require.NoError(t, err)

	_, err = svc.Update(ctx, "u1", task.Collection, "t1", docstore.Fields{task.FieldProjectID: "p2"})
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)

	_, err = svc.Update(ctx, "u1", task.Collection, "t1", docstore.Fields{task.FieldName: ""})
	require.ErrorIs(t, err, workspace.ErrInvalidFields)

	_, err = svc.Update(ctx, "u2", task.Collection, "t1", patch)
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)
	logs.AssertNumberOfCalls(t, "Log", 1)
}

func TestWorkspace_UpdateProjectOwnerImmutable(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	docs.On("Get", ctx, project.Collection, "p1").Return(projectDoc("p1", "u1", "Alpha"), nil)
	svc := newService(docs, &mocks.ActivityRepository{})

	_, err := svc.Update(ctx, "u1", project.Collection, "p1", docstore.Fields{project.FieldOwner: "u2"})
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)
}

func TestWorkspace_DeleteProject(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	logs := &mocks.ActivityRepository{}

	docs.On("Get", ctx, project.Collection, "p1").Return(projectDoc("p1", "u1", "Alpha"), nil)
	docs.On("Get", ctx, project.Collection, "missing").Return(nil, docstore.ErrNotFound)
	docs.On("Delete", ctx, project.Collection, "p1").Return(nil)
	logs.On("Log", ctx, "u1", mock.Anything).Return(nil)

	svc := newService(docs, logs)
	require.NoError(t, svc.Delete(ctx, "u1", project.Collection, "p1"))
	require.ErrorIs(t, svc.Delete(ctx, "u2", project.Collection, "p1"), workspace.ErrPermissionDenied)
	require.ErrorIs(t, svc.Delete(ctx, "u1", project.Collection, "missing"), docstore.ErrNotFound)
	docs.AssertNumberOfCalls(t, "Delete", 1)
}

func TestWorkspace_ActivityFailureDoesNotFailWrite(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	logs := &mocks.ActivityRepository{}

	docs.On("Get", ctx, project.Collection, "p1").Return(projectDoc("p1", "u1", "Alpha"), nil)
	docs.On("Delete", ctx, project.Collection, "p1").Return(nil)
	logs.On("Log", ctx, "u1", mock.Anything).Return(context.DeadlineExceeded)

	svc := newService(docs, logs)
	require.NoError(t, svc.Delete(ctx, "u1", project.Collection, "p1"))
}

func TestWorkspace_QueriesMustBeScoped(t *testing.T) {
	ctx := context.Background()
	docs := &mocks.DocumentStore{}
	docs.On("Get", ctx, project.Collection, "p1").Return(projectDoc("p1", "u1", "Alpha"), nil)
	docs.On("Run", ctx, project.OwnedBy("u1")).Return([]docstore.Document{*projectDoc("p1", "u1", "Alpha")}, nil)
	docs.On("Subscribe", ctx, task.InProject("p1"), mock.Anything, mock.Anything).Return(nil, nil)
	svc := newService(docs, &mocks.ActivityRepository{})

	list, err := svc.List(ctx, "u1", project.OwnedBy("u1"))
	require.NoError(t, err)
	require.Len(t, list, 1)

	_, err = svc.List(ctx, "u1", project.OwnedBy("u2"))
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)

	_, err = svc.List(ctx, "u1", docstore.Query{Collection: project.Collection})
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)

	_, err = svc.Subscribe(ctx, "u1", task.InProject("p1"), func(docstore.Snapshot) {}, nil)
	require.NoError(t, err)

	_, err = svc.Subscribe(ctx, "u2", task.InProject("p1"), func(docstore.Snapshot) {}, nil)
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)

	_, err = svc.Subscribe(ctx, "u1", docstore.Query{Collection: task.Collection}, func(docstore.Snapshot) {}, nil)
	require.ErrorIs(t, err, workspace.ErrPermissionDenied)

	_, err = svc.Subscribe(ctx, "u1", docstore.Query{}, func(docstore.Snapshot) {}, nil)
	require.ErrorIs(t, err, docstore.ErrInvalidQuery)
}
