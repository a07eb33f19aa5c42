package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/xxxsen/repomind/internal/model"
	appErr "github.com/xxxsen/repomind/internal/pkg/errors"
	"github.com/xxxsen/repomind/internal/pkg/secret"
	"github.com/xxxsen/repomind/internal/vcs"
)

var testBox = secret.NewBox("test-secret")

type fakeVCS struct {
	mu        sync.Mutex
	tree      []vcs.TreeEntry
	commits   []vcs.CommitMeta
	diffs     map[string]string
	diffErrs  map[string]error
	files     map[string]string
	fileErrs  map[string]error
	diffCalls atomic.Int32
	fileCalls atomic.Int32
}

func (f *fakeVCS) DefaultBranch(ctx context.Context, ref vcs.RepoRef, token string) (string, error) {
	return "main", nil
}

func (f *fakeVCS) ListFileTree(ctx context.Context, ref vcs.RepoRef, token, branch string) ([]vcs.TreeEntry, error) {
	return f.tree, nil
}

func (f *fakeVCS) ListCommits(ctx context.Context, ref vcs.RepoRef, token, branch string) ([]vcs.CommitMeta, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]vcs.CommitMeta(nil), f.commits...), nil
}

func (f *fakeVCS) FetchDiff(ctx context.Context, ref vcs.RepoRef, token, hash string) (string, error) {
	f.diffCalls.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.diffErrs[hash]; err != nil {
		return "", err
	}
	return f.diffs[hash], nil
}

func (f *fakeVCS) FetchFile(ctx context.Context, ref vcs.RepoRef, token, branch, path string) (string, error) {
	f.fileCalls.Add(1)
	if err := f.fileErrs[path]; err != nil {
		return "", err
	}
	return f.files[path], nil
}

// fakeProjectDB backs both the project and membership stores.
type fakeProjectDB struct {
	mu        sync.Mutex
	projects  map[string]*model.Project
	members   map[string]model.ProjectMember
	createErr error
}

func newFakeProjectDB() *fakeProjectDB {
	return &fakeProjectDB{projects: map[string]*model.Project{}, members: map[string]model.ProjectMember{}}
}

func memberKey(projectID, userID string) string {
	return projectID + "|" + userID
}

func (f *fakeProjectDB) addProject(id, repoURL, token string) *model.Project {
	cipher, err := testBox.Seal(token)
	if err != nil {
		panic(err)
	}
	p := &model.Project{ID: id, Name: id, RepoURL: repoURL, TokenCipher: cipher}
	f.mu.Lock()
	f.projects[id] = p
	f.mu.Unlock()
	return p
}

func (f *fakeProjectDB) addMember(projectID, userID, role string) {
	f.mu.Lock()
	f.members[memberKey(projectID, userID)] = model.ProjectMember{ProjectID: projectID, UserID: userID, Role: role}
	f.mu.Unlock()
}

func (f *fakeProjectDB) upsertMember(m model.ProjectMember) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := memberKey(m.ProjectID, m.UserID)
	if existing, ok := f.members[key]; ok {
		m.Role = existing.Role
	}
	f.members[key] = m
}

func (f *fakeProjectDB) CreateWithAdmin(ctx context.Context, project *model.Project, admin *model.ProjectMember) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.mu.Lock()
	cp := *project
	f.projects[project.ID] = &cp
	f.mu.Unlock()
	f.upsertMember(*admin)
	return nil
}

func (f *fakeProjectDB) GetByID(ctx context.Context, projectID string) (*model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok || p.DeletedAt != 0 {
		return nil, appErr.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProjectDB) ListByUser(ctx context.Context, userID string) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Project
	for _, p := range f.projects {
		if _, ok := f.members[memberKey(p.ID, userID)]; ok && p.DeletedAt == 0 {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeProjectDB) ListActive(ctx context.Context) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Project
	for _, p := range f.projects {
		if p.DeletedAt == 0 {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeProjectDB) Archive(ctx context.Context, projectID string, now int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.projects[projectID]
	if !ok || p.DeletedAt != 0 {
		return appErr.ErrNotFound
	}
	p.DeletedAt = now
	return nil
}

func (f *fakeProjectDB) Get(ctx context.Context, projectID, userID string) (*model.ProjectMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[memberKey(projectID, userID)]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	return &m, nil
}

func (f *fakeProjectDB) ListByProject(ctx context.Context, projectID string) ([]model.ProjectMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.ProjectMember
	for _, m := range f.members {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	return out, nil
}

type fakeCommitStore struct {
	mu   sync.Mutex
	rows map[string]*model.Commit
}

func newFakeCommitStore() *fakeCommitStore {
	return &fakeCommitStore{rows: map[string]*model.Commit{}}
}

func (f *fakeCommitStore) ExistingHashes(ctx context.Context, projectID string, hashes []string) (map[string]struct{}, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	want := toSet(hashes)
	out := map[string]struct{}{}
	for _, c := range f.rows {
		if _, ok := want[c.CommitHash]; ok && c.ProjectID == projectID {
			out[c.CommitHash] = struct{}{}
		}
	}
	return out, nil
}

func (f *fakeCommitStore) BulkInsert(ctx context.Context, commits []model.Commit) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var inserted int64
	for _, c := range commits {
		dup := false
		for _, existing := range f.rows {
			if existing.ProjectID == c.ProjectID && existing.CommitHash == c.CommitHash {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		cp := c
		f.rows[c.ID] = &cp
		inserted++
	}
	return inserted, nil
}

func (f *fakeCommitStore) GetByID(ctx context.Context, id string) (*model.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return nil, appErr.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCommitStore) ListByProject(ctx context.Context, projectID string) ([]model.Commit, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Commit
	for _, c := range f.rows {
		if c.ProjectID == projectID {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CommitTime > out[j].CommitTime })
	return out, nil
}

func (f *fakeCommitStore) UpdateSummary(ctx context.Context, id, summary string, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[id]
	if !ok {
		return appErr.ErrNotFound
	}
	c.Summary = summary
	c.Mtime = mtime
	return nil
}

func (f *fakeCommitStore) byHash(hash string) *model.Commit {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.rows {
		if c.CommitHash == hash {
			cp := *c
			return &cp
		}
	}
	return nil
}

type fakeFileStore struct {
	mu   sync.Mutex
	rows []model.FileEmbedding
}

func (f *fakeFileStore) Save(ctx context.Context, item *model.FileEmbedding) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *item)
	return nil
}

func (f *fakeFileStore) ListEmbedded(ctx context.Context, projectID string) ([]model.FileEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FileEmbedding
	for _, r := range f.rows {
		if r.ProjectID == projectID && r.EmbeddingState == model.EmbeddingEmbedded {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFileStore) ListFailed(ctx context.Context, limit int) ([]model.FileEmbedding, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FileEmbedding
	for _, r := range f.rows {
		if r.EmbeddingState == model.EmbeddingFailed && len(out) < limit {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeFileStore) UpdateEmbedding(ctx context.Context, id string, emb model.Embedding, mtime int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].EmbeddingState = emb.State
			f.rows[i].Embedding = emb.Vector
			f.rows[i].Mtime = mtime
			return nil
		}
	}
	return appErr.ErrNotFound
}

func (f *fakeFileStore) byName(name string) []model.FileEmbedding {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.FileEmbedding
	for _, r := range f.rows {
		if r.FileName == name {
			out = append(out, r)
		}
	}
	return out
}

// fakeLedger serializes debits the way the row lock does.
type fakeLedger struct {
	mu       sync.Mutex
	balances map[string]int64
	txns     []model.CreditTransaction
	grants   map[string]struct{}
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{balances: map[string]int64{}, grants: map[string]struct{}{}}
}

func (f *fakeLedger) Balance(ctx context.Context, userID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.balances[userID], nil
}

func (f *fakeLedger) Debit(ctx context.Context, txn *model.CreditTransaction) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	current := f.balances[txn.UserID]
	if current+txn.Delta < 0 {
		return current, appErr.ErrInsufficientCredits
	}
	f.balances[txn.UserID] = current + txn.Delta
	f.txns = append(f.txns, *txn)
	return current, nil
}

func (f *fakeLedger) Grant(ctx context.Context, txn *model.CreditTransaction) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.grants[txn.Ref]; ok {
		return false, nil
	}
	f.grants[txn.Ref] = struct{}{}
	f.balances[txn.UserID] += txn.Delta
	f.txns = append(f.txns, *txn)
	return true, nil
}

func (f *fakeLedger) Refund(ctx context.Context, txn *model.CreditTransaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.balances[txn.UserID] += txn.Delta
	f.txns = append(f.txns, *txn)
	return nil
}

func (f *fakeLedger) ListTransactions(ctx context.Context, userID string, limit int) ([]model.CreditTransaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.CreditTransaction
	for _, t := range f.txns {
		if t.UserID == userID {
			out = append(out, t)
		}
	}
	return out, nil
}

type fakeJoinCodes struct {
	mu    sync.Mutex
	db    *fakeProjectDB
	codes map[string]*model.JoinCode
	// collide makes the next N Replace calls report a unique clash.
	collide int
}

func newFakeJoinCodes(db *fakeProjectDB) *fakeJoinCodes {
	return &fakeJoinCodes{db: db, codes: map[string]*model.JoinCode{}}
}

func (f *fakeJoinCodes) Replace(ctx context.Context, code *model.JoinCode) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.collide > 0 {
		f.collide--
		return appErr.ErrConflict
	}
	for k, c := range f.codes {
		if c.ProjectID == code.ProjectID && c.UsedAt == 0 {
			delete(f.codes, k)
		}
	}
	cp := *code
	f.codes[code.Code] = &cp
	return nil
}

func (f *fakeJoinCodes) Consume(ctx context.Context, code string, member *model.ProjectMember, now int64) (*model.JoinCode, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	jc, ok := f.codes[code]
	if !ok {
		return nil, appErr.ErrInvalidCode
	}
	if jc.UsedAt != 0 {
		return nil, appErr.ErrCodeUsed
	}
	if jc.ExpiresAt <= now {
		return nil, appErr.ErrCodeExpired
	}
	if _, err := f.db.GetByID(ctx, jc.ProjectID); err != nil {
		return nil, appErr.ErrInvalidCode
	}
	jc.UsedAt = now
	jc.UsedBy = member.UserID
	member.ProjectID = jc.ProjectID
	f.db.upsertMember(*member)
	cp := *jc
	return &cp, nil
}

func (f *fakeJoinCodes) DeleteStale(ctx context.Context, now int64) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for k, c := range f.codes {
		if c.UsedAt > 0 || c.ExpiresAt <= now {
			delete(f.codes, k)
			n++
		}
	}
	return n, nil
}

type fakeQuestionStore struct {
	mu   sync.Mutex
	rows []model.Question
}

func (f *fakeQuestionStore) Create(ctx context.Context, q *model.Question) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *q)
	return nil
}

func (f *fakeQuestionStore) ListByProject(ctx context.Context, projectID string) ([]model.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Question
	for _, q := range f.rows {
		if q.ProjectID == projectID {
			out = append(out, q)
		}
	}
	return out, nil
}

// fakeAI implements every model-facing interface the services consume.
type fakeAI struct {
	diffCalls   atomic.Int32
	diffSummary func(diff string) (string, error)
	fileSummary func(path, content string) (string, error)
	embed       func(text string) model.Embedding
	answer      func(question string, refs []model.FileReference) (string, error)
}

func (f *fakeAI) SummarizeDiff(ctx context.Context, diff string) (string, error) {
	f.diffCalls.Add(1)
	if f.diffSummary != nil {
		return f.diffSummary(diff)
	}
	return "summary of " + strings.TrimSpace(diff), nil
}

func (f *fakeAI) SummarizeFile(ctx context.Context, path, content string) (string, error) {
	if f.fileSummary != nil {
		return f.fileSummary(path, content)
	}
	return fmt.Sprintf("**%s** does things", path), nil
}

func (f *fakeAI) Embed(ctx context.Context, text string) model.Embedding {
	if f.embed != nil {
		return f.embed(text)
	}
	return model.Embedded([]float32{1, 0, 0})
}

func (f *fakeAI) EmbedQuery(ctx context.Context, text string) model.Embedding {
	return f.Embed(ctx, text)
}

func (f *fakeAI) Answer(ctx context.Context, question string, refs []model.FileReference) (string, error) {
	if f.answer != nil {
		return f.answer(question, refs)
	}
	return fmt.Sprintf("answer using %d files", len(refs)), nil
}
