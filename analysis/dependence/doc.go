// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package dependence contains the framework shared by the dependence analyses: the lifecycle of an analysis
([Analysis]), the storage of dependence relations ([Relation]), the collaborators an analysis is set up with
([Info]), the context of one run ([Context]), the transitive closure of any analysis ([Indirect]) and the driver
running a set of analyses until they are all stable ([Run]).

An analysis goes through the following steps:

  - Setup validates and records the collaborators the analysis needs. It fails with an [*InitializationError]
    when one is missing, leaving the analysis unchanged.
  - Analyze computes the dependences. If an upstream collaborator is not stable yet, Analyze returns without
    error and the analysis stays unstable; the driver calls it again later.
  - Dependees and Dependents query the results. They never return nil.
  - Reset clears the results but keeps the collaborators.

The analyses themselves are implemented in the sub-packages control, divergence, ready, interference,
synchronization and data.
*/
package dependence
