package scaffold

import (
	"github.com/stretchr/testify/suite"
)

// Suite adapts a Fixture to testify's suite lifecycle. Set Fixture before
// calling suite.Run.
//
//	type GastosUnicosSuite struct{ scaffold.Suite }
//
//	func TestGastosUnicos(t *testing.T) {
//		s := &GastosUnicosSuite{}
//		s.Fixture = scaffold.NewFixture(cfg)
//		suite.Run(t, s)
//	}
type Suite struct {
	suite.Suite
	Fixture *Fixture
}

func (s *Suite) SetupSuite() {
	s.Require().NotNil(s.Fixture, "scaffold.Suite needs a Fixture")
	s.Fixture.GlobalSetup()
}

func (s *Suite) SetupTest() {
	s.Fixture.SetupTest(s.T(), s.T().Name())
}
