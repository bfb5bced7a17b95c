package badger

import (
	"encoding/binary"
	"fmt"

	"github.com/poiesic/docent/core"
)

// Key prefixes for different data types
const (
	libraryPrefix     = "librec"
	libraryNamePrefix = "libnam"
	libraryIDSeq      = "librecseq"

	documentPrefix         = "docrec"
	documentLibraryPrefix  = "doclib"
	documentChecksumPrefix = "docsum"
	documentIDSeq          = "docrecseq"

	chapterPrefix         = "chprec"
	chapterDocumentPrefix = "chpdoc"
	chapterIDSeq          = "chprecseq"

	chunkPrefix        = "chkrec"
	chunkChapterPrefix = "chkchp"
	chunkDocumentPrefix = "chkdoc"
	chunkIDSeq         = "chkrecseq"
)

// makeLibraryKey generates a key for a library by ID.
func makeLibraryKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", libraryPrefix, id))
}

// makeLibraryNameKey generates a key for the unique library name index.
func makeLibraryNameKey(name string) []byte {
	return []byte(libraryNamePrefix + ":" + name)
}

// makeDocumentKey generates a key for a document by ID.
func makeDocumentKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", documentPrefix, id))
}

// makeDocumentLibraryKey generates a composite key for the library index.
// Format: prefix:libraryID:documentID
func makeDocumentLibraryKey(libraryID, documentID core.ID) []byte {
	return makeCompositeKey(documentLibraryPrefix, uint64(libraryID), uint64(documentID))
}

// makePartialDocumentLibraryKey generates a partial key for library scans.
func makePartialDocumentLibraryKey(libraryID core.ID) []byte {
	return makePartialKey(documentLibraryPrefix, uint64(libraryID))
}

// makeDocumentChecksumKey generates a composite key for checksum lookup
// within a library.
// Format: prefix:libraryID:checksum
func makeDocumentChecksumKey(libraryID core.ID, checksum core.ID) []byte {
	return makeCompositeKey(documentChecksumPrefix, uint64(libraryID), uint64(checksum))
}

// makeChapterKey generates a key for a chapter by ID.
func makeChapterKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chapterPrefix, id))
}

// makeChapterDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chapterID
func makeChapterDocumentKey(documentID, chapterID core.ID) []byte {
	return makeCompositeKey(chapterDocumentPrefix, uint64(documentID), uint64(chapterID))
}

// makePartialChapterDocumentKey generates a partial key for document scans.
func makePartialChapterDocumentKey(documentID core.ID) []byte {
	return makePartialKey(chapterDocumentPrefix, uint64(documentID))
}

// makeChunkKey generates a key for a chunk by ID.
func makeChunkKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s:%d", chunkPrefix, id))
}

// makeChunkChapterKey generates a composite key for the chapter index.
// Format: prefix:chapterID:chunkID
func makeChunkChapterKey(chapterID, chunkID core.ID) []byte {
	return makeCompositeKey(chunkChapterPrefix, uint64(chapterID), uint64(chunkID))
}

// makePartialChunkChapterKey generates a partial key for chapter scans.
func makePartialChunkChapterKey(chapterID core.ID) []byte {
	return makePartialKey(chunkChapterPrefix, uint64(chapterID))
}

// makeChunkDocumentKey generates a composite key for the document index.
// Format: prefix:documentID:chunkID
func makeChunkDocumentKey(documentID, chunkID core.ID) []byte {
	return makeCompositeKey(chunkDocumentPrefix, uint64(documentID), uint64(chunkID))
}

// makePartialChunkDocumentKey generates a partial key for document scans.
func makePartialChunkDocumentKey(documentID core.ID) []byte {
	return makePartialKey(chunkDocumentPrefix, uint64(documentID))
}

// makeCompositeKey builds prefix:parent:child with both IDs written in
// BigEndian order so lexicographic sort matches numeric sort.
func makeCompositeKey(prefix string, parent, child uint64) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+16)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], parent)
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], child)
	return buf
}

// makePartialKey builds prefix:parent for range scans over one parent.
func makePartialKey(prefix string, parent uint64) []byte {
	prefixBytes := []byte(prefix + ":")
	buf := make([]byte, len(prefixBytes)+8)
	offset := copy(buf, prefixBytes)
	binary.BigEndian.PutUint64(buf[offset:], parent)
	return buf
}
