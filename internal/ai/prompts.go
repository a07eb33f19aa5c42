package ai

const diffSummaryPrompt = "You are an expert programmer, and you are trying to summarize a git diff.\n" +
	"Reminders about the git diff format:\n" +
	"For every file, there are a few metadata lines, like (for example):\n" +
	"```\n" +
	"diff --git a/lib/index.js b/lib/index.js\n" +
	"index aadf691..bfef603 100644\n" +
	"--- a/lib/index.js\n" +
	"+++ b/lib/index.js\n" +
	"```\n" +
	"This means that `lib/index.js` was modified in this commit. Note that this is only an example.\n" +
	"Then there is a specifier of the lines that were modified.\n" +
	"A line starting with `+` means it was added.\n" +
	"A line that starts with `-` means that line was deleted.\n" +
	"A line that starts with neither `+` nor `-` is code given for context and better understanding.\n" +
	"It is not part of the diff.\n\n" +
	"EXAMPLE SUMMARY COMMENTS:\n" +
	"```\n" +
	"- Raised the amount of returned recordings from `10` to `100` [packages/server/recordings_api.ts]\n" +
	"- Fixed a typo in the github action name [.github/workflows/gpt-commit-summarizer.yml]\n" +
	"- Moved the `octokit` initialization to a separate file [src/octokit.ts]\n" +
	"- Lowered numeric tolerance for test files\n" +
	"```\n" +
	"Most commits will have less comments than this examples list.\n" +
	"Do not include parts of the example in your summary.\n" +
	"It is given only as an example of appropriate comments.\n\n" +
	"Summarize the following diff:\n\n%s"

const fileSummaryPrompt = `You are a senior software engineer who onboards junior engineers onto a codebase.
Explain the purpose of the file %s and how it fits into the project.
- Keep it under 100 words.
- Mention the main types, functions or exported symbols.
- Output ONLY the explanation.

CODE:
%s`

const answerPrompt = `You are an AI code assistant who answers questions about a codebase for a technical intern.
Use only the CONTEXT BLOCK below. If the context does not contain the answer, say that you do not know.
Answer in markdown, include code snippets when useful, and be detailed.

START CONTEXT BLOCK
%s
END OF CONTEXT BLOCK

START QUESTION
%s
END OF QUESTION`
