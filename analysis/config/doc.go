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
Package config provides a simple way to manage configuration files.

Use [Load](filename) to load a configuration from a specific filename.

Use [SetGlobalConfig](filename) to set filename as the global config, and then [LoadGlobal]() to load the global config.

A config file should be in yaml format. The top-level fields can be any of the fields defined in the Config
struct type. The other fields are defined by the types of the fields of [Config] and nested struct types.
For example, a valid config file is as follows:

	log-level: 4
	dependence:
	  termination-sensitive: false
	  interprocedural-divergence: true
	  ready-rules: 15
	  ready-precision: points-to
	  interference-precision: escape
	  work-bag: lifo

# Precision strategies

The ready and interference dependence analyses decide whether two program points may access the same object with a
precision strategy. The strategies are cumulative: "points-to" performs the "type" checks and then intersects
points-to sets, "escape" additionally requires the objects to escape their thread, and "symbolic" additionally
requires the access paths to be coupled.
*/
package config
