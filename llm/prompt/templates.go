package prompt

// Built-in templates for the four prompted call sites. Each is rendered
// once per call with the vars struct documented alongside it.

// ValidateVars parameterizes the Validate template.
type ValidateVars struct {
	Request  string
	InScope  []string
	OutScope []string
}

// Validate classifies the request as in-scope or out-of-scope. The user
// message carries the domain allow/deny list (§4.1: "scope description
// provided via configuration").
var Validate = mustNew("validate",
	`You are a request classifier for a multi-agent orchestration system.
Given the allowed and disallowed domains below, decide whether the user's
request is in scope. Respond with a single fenced JSON object and nothing
else, shaped exactly as: {"is_valid": bool, "reasoning": string}.`,
	`In-scope domains: {{.InScope}}
Out-of-scope domains: {{.OutScope}}

User request:
{{.Request}}`,
	TemperatureValidate,
)

// PlanVars parameterizes the Plan template.
type PlanVars struct {
	Request      string
	Workers      []PlanWorker
	PriorResults []PlanPriorTask
	ReplanReason string
}

// PlanWorker is a worker capability card rendered into the Plan prompt.
type PlanWorker struct {
	WorkerID     string
	Name         string
	Description  string
	Capabilities []string
	Skills       []string
}

// PlanPriorTask summarises a previously executed task for a replan prompt.
type PlanPriorTask struct {
	TaskID      string
	Description string
	WorkerName  string
	Status      string
	Result      string
	Error       string
}

// Plan produces a Plan (typed DAG) from the request and the current
// registry snapshot; on replan it also receives prior results and a replan
// reason (§4.2).
var Plan = mustNew("plan",
	`You are a planning engine for a multi-agent orchestration system. Given a
user request and a list of available workers, produce a plan: a set of
tasks, each assigned to exactly one worker, with optional dependencies on
other tasks in the same plan. Choose "parallel" strategy iff all tasks are
mutually independent, else "sequential". Respond with a single fenced JSON
object and nothing else, shaped exactly as:
{"strategy": "parallel"|"sequential", "analysis": string, "tasks": [
  {"id": string, "description": string, "worker_id": string,
   "dependencies": [string], "rationale": string}
]}
"id" values are your own local labels; the caller remaps them. Dependencies
must refer to other "id" values in this same task list.`,
	`User request:
{{.Request}}

Available workers:
{{range .Workers}}- {{.WorkerID}} ({{.Name}}): {{.Description}} [capabilities: {{.Capabilities}}] [skills: {{.Skills}}]
{{end}}
{{if .PriorResults}}
This is a replan. Reason: {{.ReplanReason}}
Prior task results:
{{range .PriorResults}}- {{.TaskID}} ({{.WorkerName}}, {{.Description}}): status={{.Status}} result={{.Result}} error={{.Error}}
{{end}}
{{end}}`,
	TemperaturePlan,
)

// AnalyseVars parameterizes the Analyse template.
type AnalyseVars struct {
	Request string
	Tasks   []PlanPriorTask
}

// Analyse decides whether the aggregate results suffice or whether the
// driver should replan (§4.5).
var Analyse = mustNew("analyse",
	`You are judging whether a multi-agent orchestration run has produced
sufficient results to answer the user's request. Respond with a single
fenced JSON object and nothing else, shaped exactly as:
{"verdict": "sufficient"|"insufficient"|"give_up", "replan_strategy": string}
"replan_strategy" is required only when verdict is "insufficient"; it should
describe, in one or two sentences, what the next plan should do
differently.`,
	`User request:
{{.Request}}

Task results:
{{range .Tasks}}- {{.TaskID}} ({{.WorkerName}}, {{.Description}}): status={{.Status}} result={{.Result}} error={{.Error}}
{{end}}`,
	TemperatureAnalyse,
)

// AggregateVars parameterizes the Aggregate template.
type AggregateVars struct {
	Request string
	Tasks   []PlanPriorTask
}

// Aggregate synthesises a final user-facing artifact from all task results
// (§4.6).
var Aggregate = mustNew("aggregate",
	`You are synthesising the final response for the user from the results of
a multi-agent orchestration run. Write a clear, direct answer to the user's
original request using the task results below. If some tasks failed,
acknowledge what could not be completed without dwelling on internal
mechanics. Respond with plain text only — no JSON, no fenced blocks.`,
	`User request:
{{.Request}}

Task results:
{{range .Tasks}}- {{.TaskID}} ({{.WorkerName}}, {{.Description}}): status={{.Status}} result={{.Result}} error={{.Error}}
{{end}}`,
	TemperatureAggregate,
)

func mustNew(name, system, userSrc string, temp float32) *Template {
	t, err := New(name, system, userSrc, temp)
	if err != nil {
		panic(err)
	}
	return t
}
