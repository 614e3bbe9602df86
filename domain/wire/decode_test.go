package wire

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/felixgeelhaar/taskworker/domain/task"
)

func TestRoundTrip_WorkerMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  Message
	}{
		{"TaskRunCompleted", TaskRunCompleted{
			Completion: TaskRunSuccessfulExecutionResult{
				Ok:         true,
				ID:         "run-1",
				Output:     `{"greeting":"Hello World"}`,
				OutputType: "application/json",
				Usage:      TaskRunExecutionUsage{DurationMs: 42},
			},
		}},
		{"TaskRunFailedToRun", TaskRunFailedToRun{
			Completion: TaskRunFailedExecutionResult{
				Ok:    false,
				ID:    "run-2",
				Error: NewInternalError(ErrTaskInputError, "invalid task input", "stack trace"),
				Usage: TaskRunExecutionUsage{DurationMs: 7},
			},
		}},
		{"TaskHeartbeat", TaskHeartbeat{RunID: "run-3"}},
		{"IndexComplete", IndexComplete{
			Manifest: WorkerManifest{
				ConfigPath:           "trigger.config.ts",
				Tasks:                []task.Resource{{ID: "send-email", FilePath: "tasks/send_email.go", ExportName: "Run"}},
				IncompatiblePackages: []string{},
				WorkerEntryPoint:     "worker.go",
				Runtime:              "go",
			},
			ImportErrors: []ImportError{{FilePath: "tasks/broken.go", Message: "syntax error"}},
		}},
		{"IndexTasksComplete", IndexTasksComplete{
			Tasks:        []task.Resource{{ID: "send-email", FilePath: "tasks/send_email.go", ExportName: "Run"}},
			ImportErrors: []ImportError{},
		}},
		{"Log", Log{
			Level:   LevelInfo,
			Message: "starting run",
			TaskID:  "send-email",
			RunID:   "run-4",
			Fields:  json.RawMessage(`{"attempt":1}`),
		}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := Encode(tc.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := DecodeWorkerMessage(data)
			if err != nil {
				t.Fatalf("DecodeWorkerMessage: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.msg) {
				t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", decoded, tc.msg)
			}
		})
	}
}

func TestRoundTrip_CoordinatorMessages(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		msg  Message
	}{
		{"ExecuteTaskRun", ExecuteTaskRun{Execution: TaskRunExecution{
			Task: TaskInfo{ID: "send-email", FilePath: "tasks/send_email.go", ExportName: "Run"},
			Run: RunInfo{
				ID:          "run-1",
				Payload:     `{"greeting":"Hello World"}`,
				PayloadType: "application/json",
				Tags:        []string{"env:prod"},
				CreatedAt:   1700000000,
			},
			Attempt:      AttemptInfo{ID: "attempt-1", Number: 1},
			Organization: OrganizationInfo{ID: "org-1"},
			Project:      ProjectInfo{ID: "proj-1", Ref: "proj_ref"},
			Environment:  EnvironmentInfo{ID: "env-1", Slug: "prod", Type: "PRODUCTION"},
			Queue:        QueueInfo{ID: "queue-1", Name: "default"},
		}}},
		{"Cancel", Cancel{RunID: "run-1"}},
		{"Flush", Flush{TimeoutInMs: 5000}},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data, err := Encode(tc.msg)
			if err != nil {
				t.Fatalf("Encode: %v", err)
			}
			decoded, err := DecodeCoordinatorMessage(data)
			if err != nil {
				t.Fatalf("DecodeCoordinatorMessage: %v", err)
			}
			if !reflect.DeepEqual(decoded, tc.msg) {
				t.Fatalf("round trip mismatch:\n got  %#v\n want %#v", decoded, tc.msg)
			}
		})
	}
}

func TestDecodeWorkerMessage_UnknownType(t *testing.T) {
	t.Parallel()

	if _, err := DecodeWorkerMessage([]byte(`{"type":"NOT_A_REAL_TYPE","version":"v1"}`)); err == nil {
		t.Fatal("expected an error for an unknown worker message type")
	}
}

func TestDecodeCoordinatorMessage_UnknownType(t *testing.T) {
	t.Parallel()

	if _, err := DecodeCoordinatorMessage([]byte(`{"type":"NOT_A_REAL_TYPE","version":"v1"}`)); err == nil {
		t.Fatal("expected an error for an unknown coordinator message type")
	}
}
