package mcpserver

// HeaderFormatURI is the resource URI of HeaderFormatContract.
const HeaderFormatURI = "vaultsort://header-format"

// HeaderFormatContract describes the note header vaultsort reads.
const HeaderFormatContract = `# vaultsort Header Format

Notes are routed on a metadata header at the very top of the file.

## Structure

` + "```" + `markdown
---
note_type:
  - meeting
tags:
  - "#work"
  - project-x
date: 2025-01-20
---

Body text.
` + "```" + `

## Rules

1. The first line opens the header. Its content is not checked, but write ` + "`---`" + `.
2. The header ends at the next line that is exactly ` + "`---`" + `. Without it the note has no header.
3. A key line is ` + "`key:`" + ` followed by list items, each ` + "`  - value`" + ` (two spaces, dash, space).
4. ` + "`key: value`" + ` on a single line is accepted as a one-item list.
5. A list item before any key line is an error (UndefinedKeyForValue).
6. Blank lines inside the header are ignored.
7. Values may be wrapped in single or double quotes; tags compare without quotes, without a leading ` + "`#`" + `, and case-insensitively.

## Routing

- A note tagged with the ignore tag (default ` + "`#gitignored`" + `) goes to the quarantine folder, whatever its type.
- Otherwise the first ` + "`note_type`" + ` value picks the destination folder from the note type table.
- A note without ` + "`note_type`" + `, or with a type missing from the table, stays where it is and is listed in the follow-up task.
- Attachments are routed by lowercase file extension.
`
