package dao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/ory/dockertest/v3"
	"github.com/ory/dockertest/v3/docker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB spins up a disposable Postgres container and migrates the
// schema. Tests are skipped when no Docker daemon is reachable.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	pool, err := dockertest.NewPool("")
	if err != nil {
		t.Skipf("skipping: could not construct docker pool: %v", err)
	}
	if err = pool.Client.Ping(); err != nil {
		t.Skipf("skipping: could not connect to docker: %v", err)
	}

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: "postgres",
		Tag:        "16-alpine",
		Env: []string{
			"POSTGRES_USER=test",
			"POSTGRES_PASSWORD=test",
			"POSTGRES_DB=event_checkin_test",
			"listen_addresses = '*'",
		},
	}, func(config *docker.HostConfig) {
		config.AutoRemove = true
		config.RestartPolicy = docker.RestartPolicy{Name: "no"}
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = pool.Purge(resource)
	})
	_ = resource.Expire(120)

	dsn := fmt.Sprintf("host=localhost port=%s user=test password=test dbname=event_checkin_test sslmode=disable",
		resource.GetPort("5432/tcp"))

	var db *gorm.DB
	pool.MaxWait = 60 * time.Second
	err = pool.Retry(func() error {
		var openErr error
		db, openErr = gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Silent),
		})
		if openErr != nil {
			return openErr
		}

		sqlDB, openErr := db.DB()
		if openErr != nil {
			return openErr
		}

		return sqlDB.Ping()
	})
	require.NoError(t, err)

	require.NoError(t, InitTables(db))

	return db
}

func strPtr(s string) *string {
	return &s
}

func TestAttendeeDAO(t *testing.T) {
	db := setupTestDB(t)
	d := NewAttendeeDAO(db)
	ctx := context.Background()

	t.Run("Insert rejects a duplicate identification number per event", func(t *testing.T) {
		_, err := d.Insert(ctx, Attendee{
			ID:                   "att-dup-1",
			EventID:              "evt-dup",
			Name:                 "Jane Doe",
			IdentificationNumber: "ID-100",
		})
		require.NoError(t, err)

		_, err = d.Insert(ctx, Attendee{
			ID:                   "att-dup-2",
			EventID:              "evt-dup",
			Name:                 "Imposter",
			IdentificationNumber: "ID-100",
		})
		assert.ErrorIs(t, err, ErrAttendeeExists)

		// The same number is fine for a different event.
		_, err = d.Insert(ctx, Attendee{
			ID:                   "att-dup-3",
			EventID:              "evt-other",
			Name:                 "Jane Doe",
			IdentificationNumber: "ID-100",
		})
		assert.NoError(t, err)
	})

	t.Run("FindByID", func(t *testing.T) {
		_, err := d.Insert(ctx, Attendee{
			ID:                   "att-find",
			EventID:              "evt-1",
			Name:                 "Sam Porter",
			IdentificationNumber: "ID-200",
		})
		require.NoError(t, err)

		found, err := d.FindByID(ctx, "att-find")
		require.NoError(t, err)
		assert.Equal(t, "Sam Porter", found.Name)

		_, err = d.FindByID(ctx, "ghost")
		assert.ErrorIs(t, err, ErrAttendeeNotFound)
	})

	t.Run("FindByIdentifierOrStaffID matches either column within the event", func(t *testing.T) {
		_, err := d.Insert(ctx, Attendee{
			ID:                   "att-staff",
			EventID:              "evt-lookup",
			Name:                 "Ada Staff",
			IdentificationNumber: "ID-300",
			StaffID:              strPtr("STF-42"),
		})
		require.NoError(t, err)

		byStaff, err := d.FindByIdentifierOrStaffID(ctx, "STF-42", "evt-lookup")
		require.NoError(t, err)
		require.Len(t, byStaff, 1)
		assert.Equal(t, "att-staff", byStaff[0].ID)

		byNumber, err := d.FindByIdentifierOrStaffID(ctx, "ID-300", "evt-lookup")
		require.NoError(t, err)
		require.Len(t, byNumber, 1)

		otherEvent, err := d.FindByIdentifierOrStaffID(ctx, "STF-42", "evt-elsewhere")
		require.NoError(t, err)
		assert.Empty(t, otherEvent)
	})

	t.Run("CommitCheckIn flips the flag exactly once", func(t *testing.T) {
		_, err := d.Insert(ctx, Attendee{
			ID:                   "att-commit",
			EventID:              "evt-1",
			Name:                 "Jane Doe",
			IdentificationNumber: "ID-400",
		})
		require.NoError(t, err)

		ts := time.Now().UTC().Truncate(time.Millisecond)
		require.NoError(t, d.CommitCheckIn(ctx, "att-commit", ts))

		found, err := d.FindByID(ctx, "att-commit")
		require.NoError(t, err)
		assert.True(t, found.CheckedIn)
		require.NotNil(t, found.CheckInTime)

		// The second commit loses the compare-and-set.
		err = d.CommitCheckIn(ctx, "att-commit", ts.Add(time.Minute))
		assert.ErrorIs(t, err, ErrCheckInConflict)

		// And the original timestamp survives.
		again, err := d.FindByID(ctx, "att-commit")
		require.NoError(t, err)
		assert.Equal(t, found.CheckInTime.Unix(), again.CheckInTime.Unix())
	})

	t.Run("CommitCheckIn on an unknown attendee", func(t *testing.T) {
		err := d.CommitCheckIn(ctx, "ghost", time.Now())

		assert.ErrorIs(t, err, ErrAttendeeNotFound)
	})

	t.Run("ResetCheckIn clears the flag and timestamp", func(t *testing.T) {
		_, err := d.Insert(ctx, Attendee{
			ID:                   "att-reset",
			EventID:              "evt-1",
			Name:                 "Jane Doe",
			IdentificationNumber: "ID-500",
		})
		require.NoError(t, err)

		require.NoError(t, d.CommitCheckIn(ctx, "att-reset", time.Now()))
		require.NoError(t, d.ResetCheckIn(ctx, "att-reset"))

		found, err := d.FindByID(ctx, "att-reset")
		require.NoError(t, err)
		assert.False(t, found.CheckedIn)
		assert.Nil(t, found.CheckInTime)

		// A reset ticket can be admitted again.
		assert.NoError(t, d.CommitCheckIn(ctx, "att-reset", time.Now()))
	})

	t.Run("ListByEvent orders by name", func(t *testing.T) {
		for i, name := range []string{"Zoe", "Amy"} {
			_, err := d.Insert(ctx, Attendee{
				ID:                   fmt.Sprintf("att-list-%d", i),
				EventID:              "evt-list",
				Name:                 name,
				IdentificationNumber: fmt.Sprintf("ID-60%d", i),
			})
			require.NoError(t, err)
		}

		attendees, err := d.ListByEvent(ctx, "evt-list")
		require.NoError(t, err)
		require.Len(t, attendees, 2)
		assert.Equal(t, "Amy", attendees[0].Name)
		assert.Equal(t, "Zoe", attendees[1].Name)
	})
}
