package tasks

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskmarket/taskmarket-api/internal/domain"
	"github.com/taskmarket/taskmarket-api/internal/platform/memstore"
)

type fixture struct {
	svc       *taskServiceImpl
	taskStore *memstore.TaskStore
	userStore *memstore.UserStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	taskStore := memstore.NewTaskStore()
	userStore := memstore.NewUserStoreWithPlainPasswords()
	svc := NewTaskService(taskStore, userStore, nil, nil).(*taskServiceImpl)
	return &fixture{svc: svc, taskStore: taskStore, userStore: userStore}
}

func (f *fixture) addUser(t *testing.T, username string) uuid.UUID {
	t.Helper()
	user, err := domain.NewUser(username, username+"@example.com", "password123")
	require.NoError(t, err)
	require.NoError(t, f.userStore.Create(context.Background(), user))
	return user.ID
}

func mustCost(t *testing.T, s string) decimal.Decimal {
	t.Helper()
	cost, err := domain.ParseCost(s)
	require.NoError(t, err)
	return cost
}

func mustDeadline(t *testing.T, s string) time.Time {
	t.Helper()
	deadline, err := domain.ParseDeadline(s)
	require.NoError(t, err)
	return deadline
}

func TestCreateTask(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "creator")
	executor := f.addUser(t, "executor")

	task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "tile the bathroom",
		Cost:     mustCost(t, "250.00"),
		Deadline: mustDeadline(t, "2030-06-01"),
		Executor: uuid.NullUUID{UUID: executor, Valid: true},
	})
	require.NoError(t, err)
	assert.Equal(t, creator, task.Creator)
	require.True(t, task.Executor.Valid)
	assert.Equal(t, executor, task.Executor.UUID)
	assert.False(t, task.IsDone, "new tasks are never done")

	// The task is actually persisted.
	stored, err := f.svc.GetTask(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, task.ID, stored.ID)
}

func TestCreateTask_SelfAssignmentRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "loner")

	_, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "do it myself",
		Cost:     mustCost(t, "10"),
		Deadline: mustDeadline(t, "2030-06-01"),
		Executor: uuid.NullUUID{UUID: creator, Valid: true},
	})
	assert.ErrorIs(t, err, ErrSelfAssignment)

	// Nothing was persisted.
	tasks, err := f.svc.ListCreated(ctx, creator)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestCreateTask_UnknownExecutorDropped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "optimist")

	task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "for a ghost",
		Cost:     mustCost(t, "99.99"),
		Deadline: mustDeadline(t, "2030-06-01"),
		Executor: uuid.NullUUID{UUID: uuid.New(), Valid: true},
	})
	require.NoError(t, err, "an unknown executor is dropped, not rejected")
	assert.False(t, task.Executor.Valid)
}

func TestCreateTask_ValidationPassesThrough(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "sloppy")

	_, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "",
		Cost:     mustCost(t, "10"),
		Deadline: mustDeadline(t, "2030-06-01"),
	})
	assert.ErrorIs(t, err, domain.ErrTaskNameEmpty)
}

func TestAssignExecutor(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "poster")
	worker := f.addUser(t, "worker")
	rival := f.addUser(t, "rival")

	task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "open task",
		Cost:     mustCost(t, "40"),
		Deadline: mustDeadline(t, "2030-06-01"),
	})
	require.NoError(t, err)

	assigned, err := f.svc.AssignExecutor(ctx, task.ID, worker)
	require.NoError(t, err)
	require.True(t, assigned.Executor.Valid)
	assert.Equal(t, worker, assigned.Executor.UUID)

	// Any later claim fails, including by the current executor.
	_, err = f.svc.AssignExecutor(ctx, task.ID, rival)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	_, err = f.svc.AssignExecutor(ctx, task.ID, worker)
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
}

func TestAssignExecutor_CreatorRejected(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "eager")

	task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "no takers",
		Cost:     mustCost(t, "5"),
		Deadline: mustDeadline(t, "2030-06-01"),
	})
	require.NoError(t, err)

	_, err = f.svc.AssignExecutor(ctx, task.ID, creator)
	assert.ErrorIs(t, err, ErrSelfAssignment)
}

func TestAssignExecutor_TaskNotFound(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	worker := f.addUser(t, "searcher")

	_, err := f.svc.AssignExecutor(ctx, uuid.New(), worker)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestAssignExecutor_ConcurrentClaimsExactlyOneWins(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "auctioneer")

	task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "hot task",
		Cost:     mustCost(t, "1000"),
		Deadline: mustDeadline(t, "2030-06-01"),
	})
	require.NoError(t, err)

	const claimants = 16
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		winners int
		losers  int
	)
	start := make(chan struct{})
	for i := 0; i < claimants; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			_, err := f.svc.AssignExecutor(ctx, task.ID, uuid.New())
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners++
			} else {
				require.ErrorIs(t, err, ErrAlreadyAssigned)
				losers++
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, 1, winners, "exactly one concurrent claim must succeed")
	assert.Equal(t, claimants-1, losers)
}

func TestMarkDone(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "boss")
	worker := f.addUser(t, "doer")
	stranger := f.addUser(t, "stranger")

	task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
		Name:     "deliverable",
		Cost:     mustCost(t, "75.50"),
		Deadline: mustDeadline(t, "2030-06-01"),
	})
	require.NoError(t, err)

	// Nobody can complete an unassigned task, not even its creator.
	_, err = f.svc.MarkDone(ctx, task.ID, creator)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	_, err = f.svc.AssignExecutor(ctx, task.ID, worker)
	require.NoError(t, err)

	// The creator still cannot complete it; only the executor can.
	_, err = f.svc.MarkDone(ctx, task.ID, creator)
	assert.ErrorIs(t, err, ErrNotAuthorized)
	_, err = f.svc.MarkDone(ctx, task.ID, stranger)
	assert.ErrorIs(t, err, ErrNotAuthorized)

	done, err := f.svc.MarkDone(ctx, task.ID, worker)
	require.NoError(t, err)
	assert.True(t, done.IsDone)

	// Completing a completed task again is a no-op success.
	again, err := f.svc.MarkDone(ctx, task.ID, worker)
	require.NoError(t, err)
	assert.True(t, again.IsDone)

	_, err = f.svc.MarkDone(ctx, uuid.New(), worker)
	assert.ErrorIs(t, err, ErrTaskNotFound)
}

func TestListings(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	alice := f.addUser(t, "alice")
	bob := f.addUser(t, "bob")

	expensive, err := f.svc.CreateTask(ctx, alice, CreateTaskParams{
		Name: "expensive", Cost: mustCost(t, "500"), Deadline: mustDeadline(t, "2030-06-01"),
	})
	require.NoError(t, err)
	cheap, err := f.svc.CreateTask(ctx, alice, CreateTaskParams{
		Name: "cheap", Cost: mustCost(t, "5"), Deadline: mustDeadline(t, "2030-06-01"),
	})
	require.NoError(t, err)
	claimed, err := f.svc.CreateTask(ctx, bob, CreateTaskParams{
		Name: "claimed", Cost: mustCost(t, "50"), Deadline: mustDeadline(t, "2030-06-01"),
	})
	require.NoError(t, err)
	_, err = f.svc.AssignExecutor(ctx, claimed.ID, alice)
	require.NoError(t, err)

	created, err := f.svc.ListCreated(ctx, alice)
	require.NoError(t, err)
	require.Len(t, created, 2)
	assert.Equal(t, expensive.ID, created[0].ID)

	assignedTo, err := f.svc.ListAssigned(ctx, alice)
	require.NoError(t, err)
	require.Len(t, assignedTo, 1)
	assert.Equal(t, claimed.ID, assignedTo[0].ID)

	unassigned, err := f.svc.ListUnassigned(ctx)
	require.NoError(t, err)
	require.Len(t, unassigned, 2)
	assert.Equal(t, cheap.ID, unassigned[0].ID, "cheapest first")
	assert.Equal(t, expensive.ID, unassigned[1].ID)

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestComputeStats(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "patron")
	worker := f.addUser(t, "earner")

	// Clock pinned so overdue classification is deterministic.
	today := time.Date(2030, 6, 15, 12, 0, 0, 0, time.UTC)
	f.svc.now = func() time.Time { return today }

	newTask := func(name, cost, deadline string) *domain.Task {
		task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
			Name: name, Cost: mustCost(t, cost), Deadline: mustDeadline(t, deadline),
		})
		require.NoError(t, err)
		return task
	}

	completed := newTask("finished work", "100.25", "2030-06-20")
	overdue := newTask("missed deadline", "30", "2030-06-01")
	pendingAssigned := newTask("in progress", "45", "2030-07-01")
	_ = newTask("untouched", "10", "2030-07-01")

	_, err := f.svc.AssignExecutor(ctx, completed.ID, worker)
	require.NoError(t, err)
	_, err = f.svc.MarkDone(ctx, completed.ID, worker)
	require.NoError(t, err)
	_, err = f.svc.AssignExecutor(ctx, pendingAssigned.ID, worker)
	require.NoError(t, err)
	_, err = f.svc.AssignExecutor(ctx, overdue.ID, worker)
	require.NoError(t, err)

	stats, err := f.svc.ComputeStats(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.CompletedTasks)
	assert.Equal(t, 3, stats.PendingTasks, "overdue tasks are still pending")
	assert.Equal(t, 1, stats.OverdueTasks)
	assert.Equal(t, 2, stats.AssignedTasks, "undone tasks with an executor")
	assert.Equal(t, "100.25", stats.TotalSpent.StringFixed(2))
	assert.Equal(t, "0.00", stats.TotalEarned.StringFixed(2))

	workerStats, err := f.svc.ComputeStats(ctx, worker)
	require.NoError(t, err)
	assert.Equal(t, "100.25", workerStats.TotalEarned.StringFixed(2))
	assert.Equal(t, "0.00", workerStats.TotalSpent.StringFixed(2))
	assert.Zero(t, workerStats.CompletedTasks, "counts cover the owned set only")
}

func TestComputeStats_DecimalExactness(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	f := newFixture(t)
	creator := f.addUser(t, "pennypincher")
	worker := f.addUser(t, "collector")

	// 0.1 + 0.2 style sums that drift under binary floats.
	for i := 0; i < 3; i++ {
		task, err := f.svc.CreateTask(ctx, creator, CreateTaskParams{
			Name: "penny job", Cost: mustCost(t, "0.10"), Deadline: mustDeadline(t, "2030-06-01"),
		})
		require.NoError(t, err)
		_, err = f.svc.AssignExecutor(ctx, task.ID, worker)
		require.NoError(t, err)
		_, err = f.svc.MarkDone(ctx, task.ID, worker)
		require.NoError(t, err)
	}

	stats, err := f.svc.ComputeStats(ctx, creator)
	require.NoError(t, err)
	assert.Equal(t, "0.30", stats.TotalSpent.StringFixed(2))
}

func TestNewTaskService_PanicsOnNilStores(t *testing.T) {
	t.Parallel()

	userStore := memstore.NewUserStore()
	taskStore := memstore.NewTaskStore()

	assert.Panics(t, func() { NewTaskService(nil, userStore, nil, nil) })
	assert.Panics(t, func() { NewTaskService(taskStore, nil, nil, nil) })
}
