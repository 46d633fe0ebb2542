package domain

import (
	"strings"
	"testing"
)

func TestNewHierarchyRejectsUnknownRole(t *testing.T) {
	_, err := NewHierarchy(map[Role][]Role{
		RoleCEO: {Role("intern")},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "unknown role") {
		t.Fatalf("err = %v, want unknown role error", err)
	}
}

func TestNewHierarchyRejectsTwoSupervisors(t *testing.T) {
	_, err := NewHierarchy(map[Role][]Role{
		RoleCEO:    {RoleTeacher},
		RoleDeputy: {RoleTeacher},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "two supervisors") {
		t.Fatalf("err = %v, want two supervisors error", err)
	}
}

func TestNewHierarchyRejectsCycle(t *testing.T) {
	_, err := NewHierarchy(map[Role][]Role{
		RoleCEO:    {RoleDeputy},
		RoleDeputy: {RoleCEO},
	}, nil)
	if err == nil || !strings.Contains(err.Error(), "cycle") {
		t.Fatalf("err = %v, want cycle error", err)
	}
}

func TestNewHierarchyRejectsUnknownApprover(t *testing.T) {
	_, err := NewHierarchy(nil, []Role{Role("intern")})
	if err == nil || !strings.Contains(err.Error(), "unknown approver") {
		t.Fatalf("err = %v, want unknown approver error", err)
	}
}

func TestCanApproveWalksTransitiveChain(t *testing.T) {
	h := DefaultHierarchy()

	cases := []struct {
		approver Role
		subject  Role
		want     bool
	}{
		{RoleTeacherLeader, RoleTeacher, true},
		{RoleEducationManager, RoleTeacher, true},
		{RoleDeputy, RoleTeacher, true},
		{RoleCEO, RoleTeacher, true},
		{RoleConsultantLeader, RoleTeacher, false},
		{RoleTeacher, RoleTeacher, false},
		{RoleTeacher, RoleConsultant, false},
		{RoleCEO, RoleInnovationTeam, true},
		{RoleWebsiteManager, RoleWebsiteIT, true},
		{RoleVirtualManager, RoleWebsiteIT, true},
		{RoleDormitoryManager, RoleWebsiteIT, false},
	}
	for _, c := range cases {
		if got := h.CanApprove(c.approver, c.subject); got != c.want {
			t.Errorf("CanApprove(%s, %s) = %v, want %v", c.approver, c.subject, got, c.want)
		}
	}
}

func TestRequiresApprovalFollowsApproverSet(t *testing.T) {
	h := DefaultHierarchy()

	if h.RequiresApproval(RoleCEO) {
		t.Error("CEO tasks should not require approval")
	}
	if h.RequiresApproval(RoleTeacherLeader) {
		t.Error("teacher leader tasks should not require approval")
	}
	if !h.RequiresApproval(RoleTeacher) {
		t.Error("teacher tasks should require approval")
	}
	if !h.RequiresApproval(RoleTelegramAdmin) {
		t.Error("telegram admin tasks should require approval")
	}
}

func TestSupervisorsOfReturnsChainInOrder(t *testing.T) {
	h := DefaultHierarchy()

	got := h.SupervisorsOf(RoleTeacher)
	want := []Role{RoleTeacherLeader, RoleEducationManager, RoleDeputy, RoleCEO}
	if len(got) != len(want) {
		t.Fatalf("chain = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("chain[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	if chain := h.SupervisorsOf(RoleCEO); len(chain) != 0 {
		t.Fatalf("CEO chain = %v, want empty", chain)
	}
}

func TestSubordinatesAreCopied(t *testing.T) {
	h := DefaultHierarchy()

	subs := h.Subordinates(RoleTeacherLeader)
	if len(subs) != 1 || subs[0] != RoleTeacher {
		t.Fatalf("subordinates = %v", subs)
	}
	subs[0] = RoleCEO
	if again := h.Subordinates(RoleTeacherLeader); again[0] != RoleTeacher {
		t.Fatal("mutating the returned slice leaked into the hierarchy")
	}
}

func TestRoleValid(t *testing.T) {
	if !RoleInnovationTeam.Valid() {
		t.Error("innovation_team should be a valid role")
	}
	if Role("plumber").Valid() {
		t.Error("unknown role reported valid")
	}
}
