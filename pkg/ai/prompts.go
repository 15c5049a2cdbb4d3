package ai

// LiteraryAnalystPrompt is the system persona for character extraction.
const LiteraryAnalystPrompt = "You are a literary analysis assistant."

// CharacterGraphPrompt is the user instruction block; the excerpt is appended
// after it verbatim.
const CharacterGraphPrompt = `Given a text excerpt, your task is to:

- Identify only the characters who appear or interact in the excerpt.
- Identify the interactions specifically between these characters.

Output ONLY a JSON object structured as follows:

{
  "nodes": [
    { "id": "Character Name", "weight": CharacterImportance },
    ...
  ],
  "edges": [
    {
      "source": "Character Name",
      "target": "Character Name",
      "type": "interaction",
      "description": "Brief description of the interaction",
      "label": "Short label summarizing the interaction",
      "weight": NumericStrengthOfInteraction
    },
    ...
  ]
}

Guidelines:
- Only include characters (no places, objects, etc).
- Each character must appear once in "nodes".
- "weight" in nodes should reflect character importance (1 = minor, 5 = very important in this excerpt).
- Every edge source and target must be a character from "nodes".
- Each "edge" must describe an interaction.
- The "label" should briefly summarize the interaction (e.g., "argues", "helps", "greets").
- The "weight" in edges should reflect the strength or intensity of the interaction (1 = minor, 5 = very strong).
- Keep descriptions and labels short.
- Output only valid JSON with no extra text.

Now, analyze the following excerpt:

`
