package workflow

import "strings"

// Prompt templates for the workflow's LLM calls. Placeholders use
// {name} syntax and are filled with fillPrompt.

const routerPrompt = `You are an expert at routing a user question to a vectorstore or web search.

The vectorstore contains documents from the project's knowledge base. Use the
vectorstore for questions that the knowledge base can plausibly answer. Use
web search for current events and anything clearly outside the knowledge base.

Return JSON with a single key "datasource" whose value is "websearch" or
"vectorstore" depending on the question.`

const docGraderPrompt = `You are a grader assessing the relevance of a retrieved document to a user question.

Here is the retrieved document:

{document}

Here is the user question:

{question}

This carefully and objectively assess whether the document contains at least
some information that is relevant to the question.

Return JSON with two keys: "binary_score", which is "yes" or "no" to indicate
whether the document is relevant, and "explanation", a short explanation of
the score.`

const ragPrompt = `You are an assistant for question-answering tasks.

Here is the context to use to answer the question:

{context}

Think carefully about the above context.

Now, review the user question:

{question}

Provide an answer to this question using only the above context.
Keep the answer concise.

Answer:`

const hallucinationGraderPrompt = `You are a teacher grading a quiz.

You will be given FACTS and a STUDENT ANSWER.

Grade criteria:

(1) Ensure the STUDENT ANSWER is grounded in the FACTS.
(2) Ensure the STUDENT ANSWER does not contain "hallucinated" information outside the scope of the FACTS.

FACTS:

{documents}

STUDENT ANSWER:

{generation}

Return JSON with two keys: "binary_score", which is "yes" or "no" to indicate
whether the STUDENT ANSWER meets the criteria, and "explanation", a short
explanation of the score.`

const answerGraderPrompt = `You are a teacher grading a quiz.

You will be given a QUESTION and a STUDENT ANSWER.

Grade criteria:

(1) The STUDENT ANSWER helps to answer the QUESTION.

QUESTION:

{question}

STUDENT ANSWER:

{generation}

Return JSON with two keys: "binary_score", which is "yes" or "no" to indicate
whether the STUDENT ANSWER meets the criteria, and "explanation", a short
explanation of the score.`

// fillPrompt substitutes {name} placeholders in a template.
func fillPrompt(template string, vars map[string]string) string {
	replacements := make([]string, 0, len(vars)*2)
	for name, value := range vars {
		replacements = append(replacements, "{"+name+"}", value)
	}
	return strings.NewReplacer(replacements...).Replace(template)
}
