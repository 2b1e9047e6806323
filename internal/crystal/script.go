package crystal

import (
	"encoding/json"
	"fmt"
	"strings"
)

// crudScript renders the bash source for one generated command. The
// record manipulation runs through node so the JSON handling matches the
// data file format exactly; the bash layer only collects arguments.
func crudScript(op string, spec Spec, dataFile string) string {
	switch op {
	case "add":
		return addScript(spec, dataFile)
	case "list":
		return listScript(spec, dataFile)
	case "search":
		return searchScript(spec, dataFile)
	default:
		return fmt.Sprintf("#!/bin/bash\necho \"%s operation for %s not implemented\"\n", op, spec.Name)
	}
}

func fieldsJSON(fields []string) string {
	b, _ := json.Marshal(fields)
	return string(b)
}

func addScript(spec Spec, dataFile string) string {
	var usage, example, assigns []string
	for i, f := range spec.Fields {
		usage = append(usage, "<"+f+">")
		example = append(example, fmt.Sprintf("%q", "example_"+f))
		assigns = append(assigns, fmt.Sprintf(`RECORD="$RECORD, \"%s\": \"$%d\""`, f, i+1))
	}

	return fmt.Sprintf(`#!/bin/bash
# Add record to %s

if [ $# -lt %d ]; then
    echo "Usage: $0 %s"
    echo "Example: $0 %s"
    exit 1
fi

RECORD="{\"timestamp\": \"$(date -u +%%Y-%%m-%%dT%%H:%%M:%%SZ)\""
%s
RECORD="$RECORD}"

node -e "
const fs = require('fs');

try {
    const dataFile = '%s';
    const data = JSON.parse(fs.readFileSync(dataFile, 'utf8'));
    const newRecord = JSON.parse(process.argv[1]);

    data.records.push(newRecord);
    data.last_modified = new Date().toISOString();

    fs.writeFileSync(dataFile, JSON.stringify(data, null, 2));

    console.log('added record to %s');
    console.log('total records: ' + data.records.length);
} catch (e) {
    console.error('error: ' + e.message);
    process.exit(1);
}
" "$RECORD"
`,
		spec.Name,
		len(spec.Fields),
		strings.Join(usage, " "),
		strings.Join(example, " "),
		strings.Join(assigns, "\n"),
		dataFile,
		spec.Name,
	)
}

func listScript(spec Spec, dataFile string) string {
	return fmt.Sprintf(`#!/bin/bash
# List records from %s

node -e "
const fs = require('fs');

try {
    const dataFile = '%s';
    const data = JSON.parse(fs.readFileSync(dataFile, 'utf8'));

    console.log(data.system_name + ':');

    if (data.records.length === 0) {
        console.log('  (no records yet)');
    } else {
        const fields = %s;
        data.records.forEach((record, i) => {
            const values = fields.map(f => record[f] || 'N/A').join(' | ');
            console.log('  ' + (i + 1) + '. ' + values);
        });
        console.log('total: ' + data.records.length + ' records');
    }
} catch (e) {
    console.error('error: ' + e.message);
    process.exit(1);
}
"
`,
		spec.Name,
		dataFile,
		fieldsJSON(spec.Fields),
	)
}

func searchScript(spec Spec, dataFile string) string {
	return fmt.Sprintf(`#!/bin/bash
# Search records in %s

if [ $# -lt 1 ]; then
    echo "Usage: $0 <search_term>"
    exit 1
fi

node -e "
const fs = require('fs');

try {
    const dataFile = '%s';
    const data = JSON.parse(fs.readFileSync(dataFile, 'utf8'));
    const searchTerm = process.argv[1].toLowerCase();

    const matches = data.records.filter(record =>
        Object.values(record).some(value =>
            String(value).toLowerCase().includes(searchTerm)));

    console.log('search results for ' + JSON.stringify(searchTerm) + ':');

    if (matches.length === 0) {
        console.log('  (no matches found)');
    } else {
        const fields = %s;
        matches.forEach((record, i) => {
            const values = fields.map(f => record[f] || 'N/A').join(' | ');
            console.log('  ' + (i + 1) + '. ' + values);
        });
        console.log('found ' + matches.length + ' matches');
    }
} catch (e) {
    console.error('error: ' + e.message);
    process.exit(1);
}
" "$1"
`,
		spec.Name,
		dataFile,
		fieldsJSON(spec.Fields),
	)
}
