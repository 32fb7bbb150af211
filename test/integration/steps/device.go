package steps

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cucumber/godog"

	"github.com/lifeos/backend/internal/application/adapter"
	"github.com/lifeos/backend/internal/application/validation"
	domainerror "github.com/lifeos/backend/internal/domain/error"
	"github.com/lifeos/backend/internal/integration/persistence/kvstore"
	"github.com/lifeos/backend/test/integration/mock"
)

// registerDeviceSteps registers steps driving a device store that syncs
// against the remote mock.
func registerDeviceSteps(ctx *godog.ScenarioContext) {
	ctx.Step(`^a device "([^"]*)" syncing with the remote mock$`, aDeviceSyncingWithTheRemoteMock)
	ctx.Step(`^the device clock reads "([^"]*)"$`, theDeviceClockReads)
	ctx.Step(`^the remote mock answers "([^"]*)" "([^"]*)" with status (\d+)$`, theRemoteMockAnswersWithStatus)
	ctx.Step(`^the remote mock answers "([^"]*)" "([^"]*)" with:$`, theRemoteMockAnswersWith)
	ctx.Step(`^the device adds a task "([^"]*)"$`, theDeviceAddsATask)
	ctx.Step(`^the device syncs$`, theDeviceSyncs)
	ctx.Step(`^the device sync should succeed$`, theDeviceSyncShouldSucceed)
	ctx.Step(`^the device sync should fail with code "([^"]*)"$`, theDeviceSyncShouldFailWithCode)
	ctx.Step(`^the device sync state should be "([^"]*)"$`, theDeviceSyncStateShouldBe)
	ctx.Step(`^the device should have (\d+) pending changes?$`, theDeviceShouldHavePendingChanges)
	ctx.Step(`^the remote mock should have received (\d+) pushed entit(?:y|ies)$`, theRemoteMockShouldHaveReceivedPushedEntities)
	ctx.Step(`^the remote mock should have received the bearer token "([^"]*)"$`, theRemoteMockShouldHaveReceivedTheBearerToken)
}

func newDeviceKV(name string) (adapter.KeyValueStore, error) {
	return kvstore.NewRedisStore(mock.NewRedis(), "device:"+name, 0)
}

func deviceContext(ctx context.Context) (*TestContext, error) {
	tc := GetTestContext(ctx)
	if tc == nil {
		return nil, fmt.Errorf("test context not found")
	}
	if tc.device == nil {
		return nil, fmt.Errorf("no device configured")
	}
	return tc, nil
}

func aDeviceSyncingWithTheRemoteMock(ctx context.Context, name string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	return tc.newDevice(name)
}

func theDeviceClockReads(ctx context.Context, value string) error {
	tc := GetTestContext(ctx)
	if tc == nil {
		return fmt.Errorf("test context not found")
	}
	at, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", value, err)
	}
	tc.clock.SetCurrentTime(at)
	return nil
}

func theRemoteMockAnswersWithStatus(ctx context.Context, method, path string, status int) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	tc.remoteMock.SetResponse(method, path, status, nil)
	return nil
}

func theRemoteMockAnswersWith(ctx context.Context, method, path string, body *godog.DocString) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	var payload map[string]any
	if err := json.Unmarshal([]byte(body.Content), &payload); err != nil {
		return fmt.Errorf("invalid mock body: %w", err)
	}
	tc.remoteMock.SetResponse(method, path, http.StatusOK, payload)
	return nil
}

func theDeviceAddsATask(ctx context.Context, title string) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	_, err = tc.device.AddTask(ctx, validation.TaskCreate{Title: title})
	return err
}

func theDeviceSyncs(ctx context.Context) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	tc.syncReport, tc.syncErr = tc.engine.Sync(ctx)
	return nil
}

func theDeviceSyncShouldSucceed(ctx context.Context) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	if tc.syncErr != nil {
		return fmt.Errorf("expected sync to succeed, got %v", tc.syncErr)
	}
	return nil
}

func theDeviceSyncShouldFailWithCode(ctx context.Context, code string) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	var syncErr *domainerror.SyncError
	if !errors.As(tc.syncErr, &syncErr) {
		return fmt.Errorf("expected a sync error, got %v", tc.syncErr)
	}
	if string(syncErr.Code) != code {
		return fmt.Errorf("expected code %s, got %s", code, syncErr.Code)
	}
	return nil
}

func theDeviceSyncStateShouldBe(ctx context.Context, state string) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	if got := string(tc.engine.State()); got != state {
		return fmt.Errorf("expected state %s, got %s", state, got)
	}
	return nil
}

func theDeviceShouldHavePendingChanges(ctx context.Context, count int) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	status, err := tc.engine.Status(ctx)
	if err != nil {
		return err
	}
	if status.Pending != count {
		return fmt.Errorf("expected %d pending changes, got %d", count, status.Pending)
	}
	return nil
}

func theRemoteMockShouldHaveReceivedPushedEntities(ctx context.Context, count int) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	total := 0
	for _, body := range tc.remoteMock.GetRequestBodies(http.MethodPost, "/api/v1/sync/push") {
		if entities, ok := body["entities"].([]any); ok {
			total += len(entities)
		}
	}
	if total != count {
		return fmt.Errorf("expected %d pushed entities, got %d", count, total)
	}
	return nil
}

func theRemoteMockShouldHaveReceivedTheBearerToken(ctx context.Context, token string) error {
	tc, err := deviceContext(ctx)
	if err != nil {
		return err
	}
	headers := tc.remoteMock.GetRequestHeaders(http.MethodPost, "/api/v1/sync/pull")
	if len(headers) == 0 {
		return fmt.Errorf("remote mock received no pull")
	}
	if got := headers[0].Get("Authorization"); got != "Bearer "+token {
		return fmt.Errorf("expected bearer %s, got %q", token, got)
	}
	return nil
}
