package manifest

import (
	"fmt"
)

// InstallCommand returns the pip install-from-URL command for a release
// record.  blob-shaped URLs are rewritten to their raw form first, since the
// blob page itself is HTML, not the artifact.
func InstallCommand(rel Release) string {
	url := rel.DownloadURL
	if parsed, err := ParseArtifactURL(url); err == nil {
		url = parsed.RawURL()
	}
	return fmt.Sprintf("pip install %s", url)
}
