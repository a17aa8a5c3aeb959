package prompt

// DefaultPrompt is the starter prompt file written by config init.
// Loop variables ({{loop_count}}, {{tasks_remaining}}, ...) expand each
// iteration; anything unknown passes through to the agent untouched.
const DefaultPrompt = `# Project Instructions

You are working through TASKS.md one item at a time.

{{#if tasks_total}}
Progress so far: {{tasks_completed}}/{{tasks_total}} tasks complete,
{{tasks_remaining}} remaining.
{{/if}}

## Rules

1. Pick the next unchecked task in TASKS.md and implement it fully.
2. Mark the task done ("- [x]") only after its tests pass.
3. Report every file you create or modify, one per line, like:
   Created src/example.py
   Modified src/other.py
4. When every task is checked off, say so plainly and stop.

Do not ask questions; decide and proceed.
`

// DefaultTasks is the starter task list written by config init.
const DefaultTasks = `# Tasks

- [ ] Replace this with the first real task
- [ ] Then list the rest, one checkbox per task
`
