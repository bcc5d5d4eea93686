package materialize

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/moby/patternmatcher"
	"github.com/moby/patternmatcher/ignorefile"
	"github.com/pkg/errors"
)

const readmeName = "README.md"

// appNamePlaceholder is substituted in the template README.
const appNamePlaceholder = "${appName}"

// copyExclusions are never copied from a template tree. Manifests are
// merged instead, and the root README is rendered separately.
const copyExclusions = `
# merged, not copied
**/package.json
# reserved; only the root one is rendered with the app name
**/README.md
`

// installArtifacts are removed once the template has been materialized.
var installArtifacts = []string{
	"node_modules",
	"package-lock.json",
	"npm-shrinkwrap.json",
	"yarn.lock",
	"pnpm-lock.yaml",
}

// ignoreRenames maps template ignore files to their dotted names. Packages
// cannot ship dotfiles reliably, so templates carry them undotted.
var ignoreRenames = [][2]string{
	{"gitignore", ".gitignore"},
	{"npmignore", ".npmignore"},
}

const baselineGitignore = `# dependencies
/node_modules
/.pnp
.pnp.js

# testing
/coverage

# production
/build
/dist
/output

# misc
.DS_Store
.idea/
.vscode/
*.swp
.env.local
.env.development.local
.env.test.local
.env.production.local

# logs
npm-debug.log*
yarn-debug.log*
yarn-error.log*

# lockfiles
package-lock.json
yarn.lock
pnpm-lock.yaml
`

func copyMatcher() (*patternmatcher.PatternMatcher, error) {
	patterns, err := ignorefile.ReadAll(strings.NewReader(copyExclusions))
	if err != nil {
		return nil, errors.Wrap(err, "read copy exclusions")
	}
	return patternmatcher.New(patterns)
}

// copyTemplate copies src into dst, overwriting existing files, and returns
// the copied file paths relative to dst in walk order. Directories are
// created but not listed.
func copyTemplate(src, dst string) ([]string, error) {
	matcher, err := copyMatcher()
	if err != nil {
		return nil, err
	}
	var copied []string
	err = filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		skip, err := matcher.MatchesOrParentMatches(rel)
		if err != nil {
			return errors.Wrapf(err, "match %s", rel)
		}
		if skip {
			return nil
		}
		target := filepath.Join(dst, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		switch {
		case d.IsDir():
			return os.MkdirAll(target, info.Mode().Perm()|0o700)
		case info.Mode()&fs.ModeSymlink != 0:
			link, err := os.Readlink(path)
			if err != nil {
				return errors.Wrapf(err, "read link %s", path)
			}
			_ = os.Remove(target)
			if err := os.Symlink(link, target); err != nil {
				return errors.Wrapf(err, "link %s", target)
			}
		case info.Mode().IsRegular():
			if err := copyFile(path, target, info.Mode().Perm()); err != nil {
				return err
			}
		default:
			return nil
		}
		copied = append(copied, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, errors.Wrap(err, "copy template files")
	}
	return copied, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return errors.Wrapf(err, "mkdir for %s", dst)
	}
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode|0o200)
	if err != nil {
		return errors.Wrapf(err, "create %s", dst)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return errors.Wrapf(err, "write %s", dst)
	}
	return out.Close()
}

// renderReadme writes the template README into dst with the app name
// substituted, replacing any README already there. It returns "" when the
// template has no README.
func renderReadme(templateDir, dst, appName string) (string, error) {
	raw, err := os.ReadFile(filepath.Join(templateDir, readmeName))
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", errors.Wrap(err, "read template README")
	}
	target := filepath.Join(dst, readmeName)
	if err := os.Remove(target); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", errors.Wrap(err, "remove existing README")
	}
	content := strings.ReplaceAll(string(raw), appNamePlaceholder, appName)
	if err := os.WriteFile(target, []byte(content), 0o644); err != nil {
		return "", errors.Wrap(err, "write README")
	}
	return readmeName, nil
}

// normalizeIgnoreFiles renames undotted ignore files, appending to an
// existing dotted file, and writes a baseline .gitignore when the project
// has none. It returns the dotted files present afterwards.
func normalizeIgnoreFiles(dir string) ([]string, error) {
	var present []string
	for _, pair := range ignoreRenames {
		plain := filepath.Join(dir, pair[0])
		dotted := filepath.Join(dir, pair[1])
		data, err := os.ReadFile(plain)
		switch {
		case errors.Is(err, os.ErrNotExist):
		case err != nil:
			return nil, errors.Wrapf(err, "read %s", pair[0])
		default:
			if err := appendFile(dotted, data); err != nil {
				return nil, err
			}
			if err := os.Remove(plain); err != nil {
				return nil, errors.Wrapf(err, "remove %s", pair[0])
			}
		}
		if _, err := os.Stat(dotted); err == nil {
			present = append(present, pair[1])
		}
	}
	if _, err := os.Stat(filepath.Join(dir, ".gitignore")); errors.Is(err, os.ErrNotExist) {
		if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(baselineGitignore), 0o644); err != nil {
			return nil, errors.Wrap(err, "write .gitignore")
		}
		present = append(present, ".gitignore")
	}
	return present, nil
}

func appendFile(path string, data []byte) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return errors.Wrapf(err, "append %s", path)
	}
	return f.Close()
}

func removeInstallArtifacts(dir string) error {
	for _, name := range installArtifacts {
		if err := os.RemoveAll(filepath.Join(dir, name)); err != nil {
			return errors.Wrapf(err, "remove %s", name)
		}
	}
	return nil
}

// mergeFileLists returns the sorted union of the file lists, dropping the
// undotted ignore file names that were renamed.
func mergeFileLists(lists ...[]string) []string {
	renamed := map[string]struct{}{}
	for _, pair := range ignoreRenames {
		renamed[pair[0]] = struct{}{}
	}
	seen := map[string]struct{}{}
	var out []string
	for _, list := range lists {
		for _, f := range list {
			if _, ok := renamed[f]; ok {
				continue
			}
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	sort.Strings(out)
	return out
}
