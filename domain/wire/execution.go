package wire

// TaskRunExecutionUsage reports resource consumption for a run.
type TaskRunExecutionUsage struct {
	DurationMs int64 `json:"durationMs"`
}

// TaskRunExecutionRetry echoes the retry attempt a run is executing under.
type TaskRunExecutionRetry struct {
	Attempt   int    `json:"attempt"`
	Timestamp int64  `json:"timestamp"`
	DelayMs   int64  `json:"delayMs,omitempty"`
}

// TaskInfo identifies the task definition being executed.
type TaskInfo struct {
	ID       string `json:"id"`
	FilePath string `json:"filePath"`
	ExportName string `json:"exportName"`
}

// RunInfo identifies the specific run and carries the payload it was
// triggered with.
type RunInfo struct {
	ID          string   `json:"id"`
	Payload     string   `json:"payload,omitempty"`
	PayloadType string   `json:"payloadType,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	IsTest      bool     `json:"isTest,omitempty"`
	CreatedAt   int64    `json:"createdAt"`
}

// AttemptInfo identifies the attempt within a run.
type AttemptInfo struct {
	ID     string `json:"id"`
	Number int    `json:"number"`
}

// OrganizationInfo identifies the owning organization.
type OrganizationInfo struct {
	ID string `json:"id"`
}

// ProjectInfo identifies the owning project.
type ProjectInfo struct {
	ID  string `json:"id"`
	Ref string `json:"ref"`
}

// EnvironmentInfo identifies the deployment environment.
type EnvironmentInfo struct {
	ID   string `json:"id"`
	Slug string `json:"slug"`
	Type string `json:"type"`
}

// QueueInfo identifies the queue a run was dispatched through.
type QueueInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// DeploymentInfo identifies the deployment a run belongs to.
type DeploymentInfo struct {
	ID      string `json:"id"`
	Version string `json:"version"`
}

// BatchInfo identifies the batch a run belongs to, when batched.
type BatchInfo struct {
	ID string `json:"id"`
}

// TaskRunExecution is the full execution payload sent with EXECUTE_TASK_RUN.
type TaskRunExecution struct {
	Task        TaskInfo               `json:"task"`
	Run         RunInfo                `json:"run"`
	Attempt     AttemptInfo            `json:"attempt"`
	Organization OrganizationInfo      `json:"organization"`
	Project     ProjectInfo            `json:"project"`
	Environment EnvironmentInfo        `json:"environment"`
	Queue       QueueInfo              `json:"queue"`
	Deployment  *DeploymentInfo        `json:"deployment,omitempty"`
	Batch       *BatchInfo             `json:"batch,omitempty"`
	Retry       *TaskRunExecutionRetry `json:"retry,omitempty"`
}

// IsRetry reports whether this execution is a retried attempt.
func (e TaskRunExecution) IsRetry() bool {
	return e.Attempt.Number > 1
}

// TaskRunSuccessfulExecutionResult is the success shape for the execution result.
type TaskRunSuccessfulExecutionResult struct {
	Ok             bool                  `json:"ok"`
	ID             string                `json:"id"`
	Output         string                `json:"output,omitempty"`
	OutputType     string                `json:"outputType,omitempty"`
	TaskIdentifier string                `json:"taskIdentifier,omitempty"`
	Usage          TaskRunExecutionUsage `json:"usage"`
}

// TaskRunFailedExecutionResult is the failure shape for the execution result.
type TaskRunFailedExecutionResult struct {
	Ok             bool                  `json:"ok"`
	ID             string                `json:"id"`
	Error          TaskRunError          `json:"error"`
	TaskIdentifier string                `json:"taskIdentifier,omitempty"`
	Usage          TaskRunExecutionUsage `json:"usage"`
}
