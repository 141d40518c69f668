package config

import (
	"fmt"
	"os"
)

func Template() string {
	return mergectlTemplate
}

func WriteTemplate(path string, overwrite bool) error {
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(mergectlTemplate), 0o644)
}

const mergectlTemplate = `# mergectl configuration. Every key is optional; omitted keys keep defaults.

directories = ["reports", "groq_cache", "quarantine", "Purchase_order"]

[environment]
dir = "venv"
# interpreter = "python3"

[[dependencies]]
spec = "ttkbootstrap"

[[dependencies]]
spec = "pypdf"

[[dependencies]]
spec = "pypdfium2"

[[dependencies]]
spec = "pdfplumber"

[[dependencies]]
spec = "pdf2image"

[[dependencies]]
spec = "rapidocr_onnxruntime"

[[dependencies]]
spec = "numpy"

[[dependencies]]
spec = "Pillow"

[[dependencies]]
spec = "PyYAML"

[[dependencies]]
spec = "pandas"

[[dependencies]]
spec = "openpyxl"

[[dependencies]]
spec = "groq"

[[dependencies]]
spec = "ultralytics"

[[dependencies]]
spec = "python-magic"
exclude_platforms = ["windows"]

[[dependencies]]
spec = "python-magic-bin"
platforms = ["windows"]

[tool]
name = "poppler"
version = "24.08.0-0"
url = "https://github.com/oschwartz10612/poppler-windows/releases/download/v24.08.0-0/Release-24.08.0-0.zip"
format = "zip"
install_path = "tools/poppler"
bin_dir = "Library/bin"
# digest = "sha256:<hex>"

[app]
entry = "cli.py"
mode_flag = "--gui"
pause = true

[[reset.targets]]
name = "Database"
path = "merger_state.db"

[[reset.targets]]
name = "Logs"
path = "merger_system.log"

[[reset.targets]]
name = "Archives"
path = "archive"

[[reset.targets]]
name = "Quarantine"
path = "quarantine"
`
