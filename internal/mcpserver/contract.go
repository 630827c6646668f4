package mcpserver

// CatalogFormatContract describes the Markdown layout the catalog is built
// from, so LLM consumers can propose well-formed additions.
const CatalogFormatContract = `# App Catalog Source Format

The catalog is built from one Markdown document per locale. Structure is
implied by document order, not nesting.

## Structure

` + "```" + `markdown
## Editors                                    <- main category (level 2 heading)

*Programs for writing text and code.*        <- optional category description

- [VS Code](https://code.visualstudio.com) - A free code editor. [![Open-Source Software][oss icon]](https://github.com/microsoft/vscode) ![Freeware][freeware icon]

### Markdown                                 <- subcategory of the preceding level 2 heading

- [Typora](https://typora.io) - Minimal Markdown editor. ![App Store][app store icon]
` + "```" + `

## Rules

1. **Level 2 headings** open a main category; **level 3 headings** open a
   subcategory of the most recent level 2 heading. Other levels are ignored.
2. **The first emphasized run** (` + "`" + `*text*` + "`" + `) in a paragraph after a heading is
   that category's description. Later descriptions are ignored.
3. **Each list item** is one app. The first link is the app name and URL; both are
   required. Text after the link, minus a leading dash, is the description.
4. **Badges** are images identified by alt text:
   - ` + "`" + `Open-Source Software` + "`" + ` marks the app open source; wrap it in a link to the source repository.
   - ` + "`" + `Freeware` + "`" + ` marks the app free.
   - ` + "`" + `App Store` + "`" + ` marks the app as distributed through the App Store; wrap it in the store link.
   - ` + "`" + `Awesome List` + "`" + ` links a related awesome list.
5. **Struck-through entries** (` + "`" + `~~[Name](url) - ...~~` + "`" + `) are retired and excluded everywhere.
6. **Identifiers** are slugs of the names. Subcategory ids are prefixed with the
   parent id (` + "`" + `editors--markdown` + "`" + `) and app ids with their category id
   (` + "`" + `editors--markdown--typora` + "`" + `). Keep names unique within a category.
7. **Sections** named in the ignore list (such as a "Contents" table of contents) are skipped
   up to the next heading of the same or a higher level.
`
