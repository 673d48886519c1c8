/*
Package atomicfile makes writing a file all-or-nothing.

Data goes to a temporary file in the destination directory which
is renamed over destination in Close(). If a Write or Close fails,
the temporary file is removed and destination keeps its old content.

	func saveContacts(path string, data []byte) error {
		f, err := atomicfile.New(path)
		if err != nil {
			return err
		}
		defer f.RemoveIfNotClosed()

		if _, err = f.Write(data); err != nil {
			return err
		}
		return f.Close()
	}
*/
package atomicfile
